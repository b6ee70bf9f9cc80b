package main

import (
	"context"
	"flag"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/drive.go/pkg/clock"
	fx "github.com/robotalks/drive.go/pkg/framework"
	"github.com/robotalks/drive.go/pkg/sim"
	"github.com/robotalks/drive.go/pkg/sim/see"
	"github.com/robotalks/drive.go/pkg/vehicle"
)

var (
	tcpAddr  = ":7000"
	httpAddr = ":7080"
	visual   bool
	imuFault bool
)

func init() {
	vehicle.SetupFlags()
	see.SetupFlags(flag.CommandLine)
	flag.StringVar(&tcpAddr, "listen", tcpAddr, "TCP address serving the simulated UART, empty to disable.")
	flag.StringVar(&httpAddr, "http", httpAddr, "HTTP address serving the simulated UART on /uart over websocket, empty to disable.")
	flag.BoolVar(&visual, "see", visual, "Stream the car pose to stdout for github.com/robotalks/see.")
	flag.BoolVar(&imuFault, "imu-fault", imuFault, "Start with a failed inertial unit.")
}

func serveHTTP(addr string, handler http.Handler) fx.Runnable {
	return fx.NamedRun("http", fx.RunFunc(func(ctx context.Context) error {
		srv := &http.Server{Addr: addr, Handler: handler}
		err := fx.RunWithContextCloser(ctx, srv, srv.ListenAndServe)
		if err == http.ErrServerClosed {
			return ctx.Err()
		}
		return err
	}))
}

func main() {
	flag.Parse()

	profile := vehicle.Default().MustLoadProfile()
	v, err := sim.NewVehicle(profile, clock.NewSystem())
	if err != nil {
		log.Fatalln(err)
	}
	v.Car.InjectIMUFault(imuFault)
	v.Loop.Idle = 100 * time.Microsecond
	if visual {
		v.Loop.Add(see.NewConfig().NewAdapter(v.Car))
	}

	runner := fx.NewRunner().HandleSignals().FailFast()
	runner.Go(fx.NamedRun("vehicle", v.Loop))
	if tcpAddr != "" {
		ln, err := net.Listen("tcp", tcpAddr)
		if err != nil {
			log.Fatalln(err)
		}
		glog.Infof("simulated UART on tcp://%s", ln.Addr())
		runner.Go(fx.NamedRun("tcp", fx.RunFunc(func(ctx context.Context) error {
			return v.Hub.ServeTCP(ctx, ln)
		})))
	}
	if httpAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/uart", v.Hub.WebSocketHandler(runner.Context))
		glog.Infof("simulated UART on ws://%s/uart", httpAddr)
		runner.Go(serveHTTP(httpAddr, mux))
	}
	if err := runner.Wait(); err != nil {
		log.Fatalln(err)
	}
}
