package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/achilleasa/lumen/asset/compiler"
	"github.com/achilleasa/lumen/asset/scene"
	"github.com/achilleasa/lumen/asset/scene/reader"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Display compiled scene info.
func ShowSceneInfo(ctx *cli.Context) error {
	setupLogging(ctx)

	sc, err := readSceneArg(ctx)
	if err != nil {
		return err
	}

	// Display compiled scene info
	logger.Noticef("scene information:\n%s", sc.Stats())
	logger.Noticef("models:\n%s", modelTable(sc))

	return nil
}

// Validate the BVH subtree of every model in a compiled scene.
func ValidateScene(ctx *cli.Context) error {
	setupLogging(ctx)

	sc, err := readSceneArg(ctx)
	if err != nil {
		return err
	}

	if err = compiler.ValidateScene(sc); err != nil {
		return err
	}

	logger.Noticef("scene is valid (%d models, %d nodes, %d triangles)", len(sc.Models), len(sc.BvhNodeList), len(sc.TriangleList))
	return nil
}

func readSceneArg(ctx *cli.Context) (*scene.Scene, error) {
	if ctx.NArg() != 1 {
		return nil, errors.New("missing compiled scene zip file")
	}

	sceneFile := ctx.Args().First()
	if !strings.HasSuffix(sceneFile, ".zip") {
		return nil, errors.New("only compiled scene files with a .zip extension are supported")
	}

	return reader.ReadScene(sceneFile)
}

func modelTable(sc *scene.Scene) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Model", "Root node", "Nodes", "First triangle", "Triangles", "Bounds"})
	for _, m := range sc.Models {
		table.Append([]string{
			m.Name,
			fmt.Sprintf("%d", m.BvhRootNodeIndex),
			fmt.Sprintf("[%d, %d)", m.BvhNodeIndex, m.BvhNodeIndex+m.NodeCount),
			fmt.Sprintf("%d", m.BvhTriangleIndex),
			fmt.Sprintf("%d", m.TriangleCount),
			fmt.Sprintf("%v - %v", m.BBox[0], m.BBox[1]),
		})
	}
	table.Render()
	return buf.String()
}
