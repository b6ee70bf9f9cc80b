// Package see streams the simulated car to github.com/robotalks/see.
package see

import (
	"encoding/json"
	"flag"
	"io"
	"os"
	"time"

	fx "github.com/robotalks/drive.go/pkg/framework"
	"github.com/robotalks/drive.go/pkg/sim"
)

// Config represents configuration for see.
type Config struct {
	W      float64
	H      float64
	Period time.Duration
}

var defaultConfig = Config{
	W:      10000,
	H:      10000,
	Period: 50 * time.Millisecond,
}

// SetupFlags registers command line flags.
func SetupFlags(fs *flag.FlagSet) {
	fs.Float64Var(&defaultConfig.W, "see-w", defaultConfig.W, "Width (mm) of visualization area")
	fs.Float64Var(&defaultConfig.H, "see-h", defaultConfig.H, "Height (mm) of visualization area")
	fs.DurationVar(&defaultConfig.Period, "see-period", defaultConfig.Period, "Interval between pose reports")
}

// NewConfig creates a default config.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewAdapter creates adapter from config.
func (c *Config) NewAdapter(car *sim.Car) *Adapter {
	return &Adapter{Config: *c, Car: car, Out: os.Stdout, initial: true}
}

// Object is the data model used to represents an object.
type Object map[string]interface{}

// Pos is a position.
type Pos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Message is the message for see.
type Message struct {
	Action string `json:"action"`
	Object Object `json:"object,omitempty"`
}

// Actions
const (
	ActionReset  = "reset"
	ActionObject = "object"
)

// Properties
const (
	PropID     = "id"
	PropType   = "type"
	PropOrigin = "origin"
	PropRadius = "radius"
	PropRotate = "rotate"
)

// CarID is the object ID of the car.
const CarID = "car"

// NewObject creates Object.
func NewObject(typ, id string) Object {
	return Object{PropID: id, PropType: typ}
}

// At sets origin.
func (o Object) At(x, y float64) Object {
	o[PropOrigin] = &Pos{X: x, Y: y}
	return o
}

// Radius sets radius.
func (o Object) Radius(r float64) Object {
	o[PropRadius] = r
	return o
}

// Rotate sets rotate.
func (o Object) Rotate(deg float64) Object {
	o[PropRotate] = deg
	return o
}

// With sets a custom property.
func (o Object) With(key string, val interface{}) Object {
	o[key] = val
	return o
}

// Adapter reports the car pose periodically, in millimeters, only when it
// changed since the last report.
type Adapter struct {
	Config Config
	Car    *sim.Car
	Out    io.Writer

	initial bool
	last    sim.Pose2D
}

// AddToLoop implements LoopAdder.
func (a *Adapter) AddToLoop(l *fx.Loop) {
	l.Every(fx.PrLvIdle, a.Config.Period, fx.ControlFunc(a.ReportChanges))
}

// ReportChanges is a controller to report changes.
func (a *Adapter) ReportChanges(cc fx.ControlContext) error {
	var msgs []Message
	pose := a.Car.Pose()
	if a.initial {
		w, h := a.Config.W/2, a.Config.H/2
		msgs = []Message{
			{Action: ActionReset},
			{Action: ActionObject, Object: NewObject("corner", "corner-lt").With("loc", "lt").At(-w, -h).Radius(1)},
			{Action: ActionObject, Object: NewObject("corner", "corner-lb").With("loc", "lb").At(-w, h).Radius(1)},
			{Action: ActionObject, Object: NewObject("corner", "corner-rt").With("loc", "rt").At(w, -h).Radius(1)},
			{Action: ActionObject, Object: NewObject("corner", "corner-rb").With("loc", "rb").At(w, h).Radius(1)},
		}
	}
	if a.initial || pose != a.last {
		msgs = append(msgs, Message{
			Action: ActionObject,
			Object: NewObject("car", CarID).
				At(pose.X*1000, pose.Y*1000).
				Radius(150).
				Rotate(pose.Heading.Degrees()).
				With("distance", a.Car.Distance()),
		})
	}
	a.initial, a.last = false, pose
	if len(msgs) == 0 {
		return nil
	}
	encoded, err := json.Marshal(msgs)
	if err != nil {
		return err
	}
	_, err = a.Out.Write(append(encoded, '\n'))
	return err
}
