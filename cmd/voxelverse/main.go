package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gekko3d/voxelverse"
	"github.com/gekko3d/voxelverse/architect"
	"github.com/gekko3d/voxelverse/config"
	"github.com/gekko3d/voxelverse/editor"
	"github.com/gekko3d/voxelverse/export"
	"github.com/gekko3d/voxelverse/persist"
	"github.com/gekko3d/voxelverse/server"
	"github.com/gekko3d/voxelverse/vox"
)

const usage = `usage: voxelverse [-config file] [-debug] [-addr host:port] <command>

commands:
  serve                 run the editor with its HTTP API (default)
  export <out>          write the saved world as glTF (.glb, .gltf, or
                        export.binary for other names)
  import <in.vox> [n]   merge model n (default 0) of a MagicaVoxel file
  describe              print the world summary used for generation
`

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	addr := flag.String("addr", "", "Override server.addr")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(2)
		}
		cfg = loaded
	}
	if *debug {
		cfg.Log.Debug = true
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	args := flag.Args()
	cmd := "serve"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "serve":
		err = serve(cfg)
	case "export":
		err = exportWorld(cfg, args)
	case "import":
		err = importVox(cfg, args)
	case "describe":
		err = describe(cfg)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", cmd, err)
		os.Exit(1)
	}
}

func buildApp(cfg *config.Config, extra ...voxelverse.Module) (*voxelverse.App, error) {
	store, err := persist.Open(cfg.Persistence.Driver, cfg.Persistence.Path)
	if err != nil {
		return nil, err
	}
	color, material := cfg.Selection()
	sel := editor.DefaultSelection()
	sel.Color, sel.Material = color, material

	modules := []voxelverse.Module{
		voxelverse.LoggingModule{Prefix: cfg.Log.Prefix, Debug: cfg.Log.Debug},
		voxelverse.EditorModule{
			HistoryCapacity:  cfg.History.Capacity,
			Selection:        &sel,
			GroundHalfExtent: cfg.Ground.HalfExtent,
		},
		voxelverse.MetricsModule{},
		voxelverse.PersistenceModule{Store: store, FlushInterval: cfg.Persistence.FlushInterval},
		voxelverse.ArchitectModule{},
	}
	modules = append(modules, extra...)

	return voxelverse.NewAppBuilder().
		UseModule(modules...).
		TickEvery(cfg.Tick).
		Build(), nil
}

func serve(cfg *config.Config) error {
	app, err := buildApp(cfg, voxelverse.ServerModule{
		Addr:            cfg.Server.Addr,
		Palette:         cfg.PaletteColors(),
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return err
	}
	if voxelverse.Resource[server.Server](app) == nil {
		_ = app.Close()
		return fmt.Errorf("could not listen on %s", cfg.Server.Addr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return app.Run(ctx)
}

func exportWorld(cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("expected one output path")
	}
	app, err := buildApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	w := app.Commands().Editor().World()
	if err := export.SaveFile(args[0], w, cfg.Export.Binary); err != nil {
		return err
	}
	app.Logger().Infof("exported %d voxels to %s", len(w), args[0])
	return nil
}

func importVox(cfg *config.Config, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("expected a .vox path and an optional model index")
	}
	model := 0
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("model index: %w", err)
		}
		model = n
	}
	f, err := vox.LoadFile(args[0])
	if err != nil {
		return err
	}
	batch, err := f.Candidates(model)
	if err != nil {
		return err
	}

	app, err := buildApp(cfg)
	if err != nil {
		return err
	}
	inbox := voxelverse.Resource[voxelverse.StructureInbox](app)
	if err := inbox.Enqueue(args[0], batch); err != nil {
		_ = app.Close()
		return err
	}
	app.Update()
	return app.Close()
}

func describe(cfg *config.Config) error {
	app, err := buildApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()
	fmt.Println(architect.Describe(app.Commands().Editor().World()))
	return nil
}
