package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gabstv/echobox/api"
	"github.com/gabstv/echobox/internal/pkg/envs"
	"github.com/gabstv/echobox/internal/pkg/logger"
	"github.com/gabstv/echobox/pkg/server"
	"github.com/mattn/go-colorable"
	"github.com/mgutz/ansi"
)

var (
	stdout io.Writer
	stderr io.Writer
)

func main() {
	stdout = colorable.NewColorableStdout()
	stderr = colorable.NewColorableStderr()
	fmt.Fprintln(stdout, ansi.Color("\nECHOBOX 1.0.0\n", "green"))
	flag.Parse()
	printHelp()

	args := flag.Args()
	probe := len(args) > 0 && args[0] == "probe"
	if probe {
		args = args[1:]
	}

	configfile := findConfigFile(args)
	cfg, err := loadConfig(configfile)
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: Unable to load the config file at %v!\n%v\n",
			ansi.Color(configfile, "red"),
			ansi.Color(err.Error(), "red"))
		os.Exit(1)
	}
	applyEnv(cfg)

	if probe {
		os.Exit(runProbe(cfg))
	}

	lvl := cfg.LogLevel
	if cfg.Debug {
		lvl = "debug"
		fmt.Fprintf(stdout, "%v DEBUG MODE IS %v\n",
			ansi.Color("WARNING:", "yellow"),
			ansi.Color("ON", "green"))
	}
	logger.Init(lvl)

	svCfg := cfg.unpack()
	s := server.Default(&svCfg)

	// Close if received signal
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, os.Interrupt, syscall.SIGTERM)
		<-sigchan
		s.Close()
	}()
	go func() {
		<-s.Ready()
		fmt.Fprintf(stdout, "%v: %v\n", ansi.Color("Listener", "green"), s.ListenerAddr())
		if a := s.ReverserAddr(); a != nil {
			fmt.Fprintf(stdout, "%v: %v\n", ansi.Color("Reverser", "green"), a)
		}
		if a := s.APIAddr(); a != nil {
			fmt.Fprintf(stdout, "%v: %v\n", ansi.Color("API", "green"), a)
		}
	}()

	if err := s.Run(); err != nil {
		fmt.Fprintf(stderr, "ERROR (s.Run()): %v\n",
			ansi.Color(err.Error(), "red"))
		os.Exit(1)
	}
}

// runProbe exercises every enabled service of cfg and returns the exit code.
func runProbe(cfg *Config) int {
	timeout := cfg.AckDelay + time.Second*5
	failed := false
	report := func(name, result string, err error) {
		if err != nil {
			failed = true
			fmt.Fprintf(stderr, "%v %v\n", ansi.Color(name, "yellow"), ansi.Color(err.Error(), "red"))
			return
		}
		fmt.Fprintf(stdout, "%v %v\n", ansi.Color(name, "green"), result)
	}

	reply, err := api.SendLine(dialAddr(cfg.ListenAddr), "hello world", timeout)
	report("listener:", reply, err)

	if cfg.UDPListenAddr != "" {
		rev, err := api.Reverse(dialAddr(cfg.UDPListenAddr), []byte("hello world"), timeout)
		report("reverser:", string(rev), err)
	}

	if cfg.APIListen != "" {
		cl := api.NewClient("http://" + dialAddr(cfg.APIListen))
		v, err := cl.Get()
		report("GET /get:", v, err)
		item, err := cl.Post(api.Item{Field1: "value1", Field2: "value2"})
		report("POST /post:", fmt.Sprintf("%+v", item), err)
	}

	if failed {
		return 1
	}
	return 0
}

func printHelp() {
	if len(flag.Args()) < 1 {
		return
	}
	if flag.Arg(0) != "help" {
		return
	}
	fmt.Fprintln(stdout, ansi.Color("Usage:", "blue"))
	fmt.Fprintf(stdout, "echobox %v\n", ansi.Color("[config.yml]", "green"))
	fmt.Fprintf(stdout, "echobox %v\n", ansi.Color("probe [config.yml]", "green"))
	fmt.Fprintf(stdout, "echobox %v\n", ansi.Color("help", "green"))
	os.Exit(0)
}

// findConfigFile returns "" when no config is found; defaults apply then.
func findConfigFile(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	if env := envs.Config(); env != "" {
		return env
	}
	if _, err := os.Stat("config.yml"); err == nil {
		return "config.yml"
	}
	return ""
}
