package cmd

import (
	"errors"

	"github.com/achilleasa/lumen/asset/compiler"
	"github.com/achilleasa/lumen/asset/compiler/bvh"
	"github.com/achilleasa/lumen/asset/mesh"
	"github.com/achilleasa/lumen/asset/scene/writer"
	"github.com/urfave/cli"
)

// Compile a set of meshes into a scene archive.
func CompileScene(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() == 0 {
		return errors.New("missing mesh file arguments")
	}

	opts, err := compilerOptions(ctx)
	if err != nil {
		return err
	}
	loadOpts := mesh.LoadOptions{
		CacheDir:  ctx.String("cache-dir"),
		Normalize: ctx.Bool("normalize"),
	}

	meshes := make([]*mesh.Mesh, 0, ctx.NArg())
	for _, meshFile := range ctx.Args() {
		logger.Noticef("loading mesh: %s", meshFile)
		m, err := mesh.Load(meshFile, loadOpts)
		if err != nil {
			return err
		}
		meshes = append(meshes, m)
	}

	sc, err := compiler.Compile(meshes, opts)
	if err != nil {
		return err
	}

	// Display compiled scene info
	logger.Noticef("scene information:\n%s", sc.Stats())

	return writer.WriteScene(sc, ctx.String("out"))
}

func compilerOptions(ctx *cli.Context) (compiler.Options, error) {
	strategy, err := bvh.ParseStrategy(ctx.String("strategy"))
	if err != nil {
		return compiler.Options{}, err
	}

	opts := compiler.DefaultOptions()
	opts.Build.Strategy = strategy
	opts.Build.MaxLeafSize = ctx.Int("leaf-size")
	opts.Build.ParallelDepth = ctx.Int("parallel-depth")
	opts.NodeCapacity = ctx.Int("node-capacity")
	opts.TriangleCapacity = ctx.Int("triangle-capacity")
	opts.StrictValidation = ctx.Bool("strict")

	// The archive only stores the global buffers.
	opts.KeepLocal = false
	return opts, nil
}
