package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/achilleasa/lumen/asset/scene"
	"github.com/achilleasa/lumen/engine"
	"github.com/achilleasa/lumen/tracer/memory"
	"github.com/achilleasa/lumen/types"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

const (
	// Camera yaw (radians) applied between frames.
	simCameraYaw float32 = 0.02

	// Object spin (degrees) applied between frames.
	simObjectSpin float32 = 1.5

	// Half extent of the region where objects are spawned.
	simWorldSize float32 = 50
)

// Populate a compiled scene with randomly placed objects and run the per
// frame sync pipeline against an in-memory tracer.
func SimulateScene(ctx *cli.Context) error {
	setupLogging(ctx)

	sc, err := readSceneArg(ctx)
	if err != nil {
		return err
	}
	if len(sc.Models) == 0 {
		return errors.New("scene does not contain any models")
	}

	opts := engine.DefaultOptions()
	if workers := ctx.Int("workers"); workers > 0 {
		opts.Workers = workers
	}
	opts.ParallelThreshold = ctx.Int("parallel-threshold")
	opts.InstanceCapacity = ctx.Int("instance-capacity")
	opts.LightCapacity = ctx.Int("light-capacity")

	tr := memory.NewTracer("memory-0", ctx.Int("buffer-size")*1024*1024)
	defer tr.Close()

	objects := spawnObjects(sc, ctx.Int("objects"), ctx.Int("lights"), ctx.Int64("seed"))
	cam := engine.NewCamera(float32(ctx.Float64("fov")))
	cam.Position = types.Vec3{0, simWorldSize * 0.2, simWorldSize}
	cam.LookAt = types.Vec3{0, 0, 0}
	cam.SetupProjection(1)

	fs := engine.NewFrameSync(sc, tr, opts)
	defer fs.Close()
	frames := ctx.Int("frames")
	frameStats := make([]engine.FrameStats, 0, frames)
	start := time.Now()
	for frame := 0; frame < frames; frame++ {
		stats, err := fs.Sync(objects, cam.ViewProjMat())
		if err != nil {
			return err
		}
		frameStats = append(frameStats, stats)

		for _, obj := range objects {
			if obj.Model != "" {
				obj.Rotation = obj.Rotation.Mul(types.QuatFromEuler(types.Vec3{0, simObjectSpin, 0})).Normalize()
			}
		}
		cam.Yaw = simCameraYaw
		cam.Update()
	}

	displayFrameStats(frameStats, time.Since(start))
	return nil
}

func spawnObjects(sc *scene.Scene, numObjects, numLights int, seed int64) []*engine.Object {
	rng := rand.New(rand.NewSource(seed))
	randRange := func(extent float32) float32 {
		return (rng.Float32()*2 - 1) * extent
	}

	objects := make([]*engine.Object, 0, numObjects+numLights)
	for i := 0; i < numObjects; i++ {
		model := sc.Models[i%len(sc.Models)]
		obj := engine.NewObject(fmt.Sprintf("%s-%d", model.Name, i), model.Name)
		obj.Position = types.Vec3{randRange(simWorldSize), randRange(simWorldSize * 0.1), randRange(simWorldSize)}
		obj.SetRotationEuler(types.Vec3{0, rng.Float32() * 360, 0})
		scale := 0.5 + rng.Float32()*2
		obj.Scale = types.Vec3{scale, scale, scale}
		objects = append(objects, obj)
	}

	for i := 0; i < numLights; i++ {
		objects = append(objects, engine.NewLight(
			fmt.Sprintf("light-%d", i),
			types.Vec3{randRange(simWorldSize), simWorldSize * 0.5, randRange(simWorldSize)},
			types.Vec3{0.5 + rng.Float32()*0.5, 0.5 + rng.Float32()*0.5, 0.5 + rng.Float32()*0.5},
			10+rng.Float32()*40,
			0.5+rng.Float32(),
		))
	}
	return objects
}

func displayFrameStats(stats []engine.FrameStats, total time.Duration) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Frame", "Visible", "Instances", "Lights", "Cull time", "Sync time", "Upload time", "Uploaded"})

	var uploaded int64
	for _, stat := range stats {
		table.Append([]string{
			fmt.Sprintf("%d", stat.Frame),
			fmt.Sprintf("%d / %d", stat.Visible, stat.Objects),
			fmt.Sprintf("%d", stat.Instances),
			fmt.Sprintf("%d", stat.Lights),
			fmt.Sprintf("%s", stat.CullTime),
			fmt.Sprintf("%s", stat.SyncTime),
			fmt.Sprintf("%s", stat.UploadTime),
			fmt.Sprintf("%d", stat.UploadedBytes),
		})
		uploaded += stat.UploadedBytes
	}
	table.SetFooter([]string{"", "", "", "", "", "", "TOTAL", fmt.Sprintf("%d bytes in %s", uploaded, total)})

	table.Render()
	logger.Noticef("frame statistics\n%s", buf.String())
}
