package main

import (
	"fmt"
	"os"

	"github.com/achilleasa/lumen/asset/compiler/bvh"
	"github.com/achilleasa/lumen/cmd"
	"github.com/achilleasa/lumen/engine"
	"github.com/achilleasa/lumen/tracer/memory"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "lumen"
	app.Usage = "build and sync BVH acceleration structures for GPU ray tracing"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "compile",
			Usage: "compile meshes into a scene archive",
			Description: `
Load one or more meshes from wavefront obj files, build a BVH tree for each
mesh and merge the trees into a pair of global node/triangle buffers laid out
for GPU traversal.

The compiled scene is written to a zip archive which can be supplied as an
argument to the info, validate and simulate commands.`,
			ArgsUsage: "mesh1.obj mesh2.obj ...",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "out, o",
					Value: "scene.zip",
					Usage: "filename for the compiled scene archive",
				},
				cli.StringFlag{
					Name:  "strategy, s",
					Value: bvh.ObjectMedian.String(),
					Usage: "BVH split strategy (object-median, centroid-median, sah)",
				},
				cli.IntFlag{
					Name:  "leaf-size",
					Value: bvh.DefaultMaxLeafSize,
					Usage: "max number of triangles per BVH leaf",
				},
				cli.IntFlag{
					Name:  "parallel-depth",
					Value: bvh.DefaultParallelDepth,
					Usage: "tree depth up to which subtrees are built in parallel",
				},
				cli.IntFlag{
					Name:  "node-capacity",
					Usage: "max number of nodes in the global node buffer (0 = unlimited)",
				},
				cli.IntFlag{
					Name:  "triangle-capacity",
					Usage: "max number of triangles in the global triangle buffer (0 = unlimited)",
				},
				cli.BoolFlag{
					Name:  "strict",
					Usage: "abort if a BVH fails validation",
				},
				cli.BoolFlag{
					Name:  "normalize",
					Usage: "center meshes and scale them to a 0.5 max extent",
				},
				cli.StringFlag{
					Name:  "cache-dir",
					Usage: "folder for caching parsed meshes",
				},
			},
			Action: cmd.CompileScene,
		},
		{
			Name:      "info",
			Usage:     "print info about a compiled scene",
			ArgsUsage: "scene.zip",
			Action:    cmd.ShowSceneInfo,
		},
		{
			Name:      "validate",
			Usage:     "validate the BVH trees of a compiled scene",
			ArgsUsage: "scene.zip",
			Action:    cmd.ValidateScene,
		},
		{
			Name:  "simulate",
			Usage: "run the per-frame instance sync against an in-memory tracer",
			Description: `
Populate a compiled scene with randomly placed objects and lights and run the
frame pipeline (frustum culling, instance sync, light collection and buffer
upload) for a number of frames while the camera rotates.`,
			ArgsUsage: "scene.zip",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "objects",
					Value: 1000,
					Usage: "number of objects to spawn",
				},
				cli.IntFlag{
					Name:  "lights",
					Value: 4,
					Usage: "number of lights to spawn",
				},
				cli.IntFlag{
					Name:  "frames",
					Value: 10,
					Usage: "number of frames to simulate",
				},
				cli.Float64Flag{
					Name:  "fov",
					Value: 60,
					Usage: "camera field of view in degrees",
				},
				cli.Int64Flag{
					Name:  "seed",
					Value: 1,
					Usage: "random seed for object placement",
				},
				cli.IntFlag{
					Name:  "workers",
					Usage: "number of pool workers (0 = number of cpus - 1)",
				},
				cli.IntFlag{
					Name:  "parallel-threshold",
					Value: engine.DefaultParallelThreshold,
					Usage: "object count above which per-object work runs on the worker pool",
				},
				cli.IntFlag{
					Name:  "instance-capacity",
					Usage: "max number of instance records (0 = unlimited)",
				},
				cli.IntFlag{
					Name:  "light-capacity",
					Usage: "max number of light records (0 = unlimited)",
				},
				cli.IntFlag{
					Name:  "buffer-size",
					Value: memory.DefaultBufferCapacity / (1024 * 1024),
					Usage: "tracer buffer capacity in MB",
				},
			},
			Action: cmd.SimulateScene,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
		os.Exit(1)
	}
}
