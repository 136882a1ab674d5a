package voxelverse

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"time"
)

type systemFn any

// Module wires resources and systems into an App.
type Module interface {
	Install(app *App, cmd *Commands)
}

// App hosts the editor's resources and runs its systems one tick at a time.
// Ticks are serialized; systems never run concurrently with each other.
type App struct {
	modules      []Module
	stages       []Stage
	systems      map[string][]systemFn
	resources    map[reflect.Type]any
	tickInterval time.Duration
	closers      []func() error
}

func newApp() *App {
	app := &App{
		systems:      make(map[string][]systemFn),
		resources:    make(map[reflect.Type]any),
		tickInterval: DefaultTickInterval,
	}
	for _, stage := range defaultStages {
		app.stages = append(app.stages, stage)
		app.systems[stage.Name] = make([]systemFn, 0)
	}
	return app
}

// DefaultTickInterval is how often Run drives the systems.
const DefaultTickInterval = 50 * time.Millisecond

func (app *App) Commands() *Commands {
	return &Commands{
		app: app,
	}
}

// Update runs every stage once.
func (app *App) Update() {
	for _, stage := range app.stages {
		for _, system := range app.systems[stage.Name] {
			app.callSystem(system)
		}
	}
}

// Run ticks until ctx is cancelled, then runs a final tick so queued work is
// flushed, and closes resources registered with OnClose.
func (app *App) Run(ctx context.Context) error {
	app.Logger().Infof("running, tick every %s", app.tickInterval)

	ticker := time.NewTicker(app.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			app.Update()
			return app.Close()
		case <-ticker.C:
			app.Update()
		}
	}
}

// OnClose registers fn to run when the app shuts down, in reverse order.
func (app *App) OnClose(fn func() error) {
	app.closers = append(app.closers, fn)
}

func (app *App) Close() error {
	var first error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	app.closers = nil
	return first
}

func (app *App) addResources(resources ...any) *App {
	for _, resource := range resources {
		resourceType := reflect.TypeOf(resource)
		if resourceType.Kind() != reflect.Pointer {
			panic(fmt.Sprintf("%s is not a pointer", resourceType))
		}
		if _, ok := app.resources[resourceType.Elem()]; ok {
			panic(fmt.Sprintf("%s is already in resources", resourceType))
		}

		app.resources[resourceType.Elem()] = resource
	}
	return app
}

// Resource returns the resource of type *T, or nil.
func Resource[T any](app *App) *T {
	if app == nil {
		return nil
	}
	r, ok := app.resources[reflect.TypeOf((*T)(nil)).Elem()]
	if !ok {
		return nil
	}
	return r.(*T)
}

var typeOfCommands = reflect.TypeOf(Commands{})

func (app *App) callSystem(system systemFn) {
	systemType := reflect.TypeOf(system)
	systemValue := reflect.ValueOf(system)

	args := make([]reflect.Value, systemType.NumIn())

	for i := 0; i < systemType.NumIn(); i++ {
		argType := systemType.In(i)
		if argType.Kind() != reflect.Pointer {
			app.unresolved(systemValue, systemType, argType)
		}
		underlyingType := argType.Elem()

		if underlyingType == typeOfCommands {
			args[i] = reflect.ValueOf(&Commands{app: app})
		} else if resource, argIsResource := app.resources[underlyingType]; argIsResource {
			args[i] = reflect.ValueOf(resource)
		} else {
			app.unresolved(systemValue, systemType, argType)
		}
	}
	systemValue.Call(args)
}

func (app *App) unresolved(systemValue reflect.Value, systemType, argType reflect.Type) {
	msg := fmt.Sprintf("Unable to resolve System dependency.\nSystem: %s\nSystem type: %s\nDependency: %s",
		runtime.FuncForPC(systemValue.Pointer()).Name(),
		fmt.Sprint(systemType),
		fmt.Sprint(argType),
	)
	panic(msg)
}
