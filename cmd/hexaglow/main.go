// Command hexaglow controls a MeRGBW/Fivemi hexagon LED panel over BLE.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chaz8081/hexaglow/internal/ble/protocol"
	"github.com/chaz8081/hexaglow/internal/config"
	"github.com/chaz8081/hexaglow/internal/light"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: ~/.config/hexaglow/config.yaml)")
	addr := flag.String("addr", "", "controller BLE address (overrides config)")
	wait := flag.Float64("wait", 0, "if >0, wait this many seconds after the command and print status")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}
	command := args[0]

	// scenes needs no device at all.
	if command == "scenes" {
		for _, name := range protocol.SceneNames() {
			fmt.Printf("%s=%d\n", name, protocol.SceneIndex(name))
		}
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *addr != "" {
		cfg.Address = *addr
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config validation: %v", err)
	}

	setupLogging(cfg.LogLevel)

	lamp := light.New(cfg.Address, light.Options{
		ServiceUUID:    cfg.UUIDs.Service,
		WriteCharUUID:  cfg.UUIDs.Write,
		NotifyCharUUID: cfg.UUIDs.Notify,
		Timeout:        cfg.Timeout(),
		ConnectRetries: cfg.Connect.Retries,
		RetryDelay:     cfg.RetryDelay(),
	})

	if err := lamp.Connect(); err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer func() {
		if err := lamp.Disconnect(); err != nil {
			slog.Warn("disconnect failed", "error", err)
		}
	}()

	if err := run(lamp, command, args[1:]); err != nil {
		log.Fatalf("%s: %v", command, err)
	}

	if *wait > 0 {
		printStatus(lamp.State(time.Duration(*wait*float64(time.Second)), true))
	}
}

func run(lamp *light.Light, command string, args []string) error {
	switch command {
	case "on":
		return lamp.TurnOn()

	case "off":
		return lamp.TurnOff()

	case "rgb":
		if len(args) != 3 {
			return fmt.Errorf("usage: hexaglow rgb R G B")
		}
		var ch [3]int
		for i, a := range args {
			v, err := strconv.Atoi(a)
			if err != nil {
				return fmt.Errorf("bad channel %q: %w", a, err)
			}
			ch[i] = v
		}
		return lamp.SetRGB(ch[0], ch[1], ch[2])

	case "brightness":
		if len(args) != 1 {
			return fmt.Errorf("usage: hexaglow brightness PERCENT")
		}
		pct, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("bad percent %q: %w", args[0], err)
		}
		return lamp.SetBrightness(pct)

	case "scene":
		if len(args) < 1 {
			return fmt.Errorf("usage: hexaglow scene INDEX|NAME [-speed N]")
		}
		fs := flag.NewFlagSet("scene", flag.ContinueOnError)
		speed := fs.Int("speed", -1, "effect speed 0-255")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		var speedArg *int
		if *speed >= 0 {
			speedArg = speed
		}
		return setScene(lamp, args[0], speedArg)

	case "status":
		printStatus(lamp.State(2*time.Second, true))
		return nil

	case "set":
		return runSet(lamp, args)

	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// runSet applies multiple properties in one connection.
func runSet(lamp *light.Light, args []string) error {
	fs := flag.NewFlagSet("set", flag.ContinueOnError)
	power := fs.String("power", "keep", "on, off or keep")
	rgb := fs.String("rgb", "", "color as R,G,B")
	brightness := fs.Int("brightness", -1, "brightness percent 0-100")
	scene := fs.String("scene", "", "scene index or name")
	sceneSpeed := fs.Int("scene-speed", -1, "effect speed 0-255 for -scene")
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch *power {
	case "on":
		if err := lamp.TurnOn(); err != nil {
			return err
		}
	case "off":
		if err := lamp.TurnOff(); err != nil {
			return err
		}
	case "keep":
	default:
		return fmt.Errorf("-power must be on, off or keep, got %q", *power)
	}

	if *rgb != "" {
		parts := strings.Split(*rgb, ",")
		if len(parts) != 3 {
			return fmt.Errorf("-rgb wants R,G,B, got %q", *rgb)
		}
		var ch [3]int
		for i, p := range parts {
			v, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return fmt.Errorf("bad channel %q: %w", p, err)
			}
			ch[i] = v
		}
		if err := lamp.SetRGB(ch[0], ch[1], ch[2]); err != nil {
			return err
		}
	}

	if *brightness >= 0 {
		if err := lamp.SetBrightness(*brightness); err != nil {
			return err
		}
	}

	if *scene != "" {
		var speedArg *int
		if *sceneSpeed >= 0 {
			speedArg = sceneSpeed
		}
		if err := setScene(lamp, *scene, speedArg); err != nil {
			return err
		}
	}

	return nil
}

// setScene accepts either a numeric index or a TG609 scene name.
func setScene(lamp *light.Light, scene string, speed *int) error {
	if idx, err := strconv.Atoi(scene); err == nil {
		return lamp.SetScene(idx, speed)
	}
	return lamp.SetSceneByName(scene, speed)
}

func printStatus(st light.State) {
	on := "unknown"
	if st.On != nil {
		on = strconv.FormatBool(*st.On)
	}
	brightness := "unknown"
	if st.Brightness != nil {
		brightness = strconv.Itoa(*st.Brightness)
	}
	fmt.Printf("is_on=%s brightness=%s raw=%x\n", on, brightness, st.Raw)
}

// loadConfig loads the config from the specified path, or falls back to the
// default config path, or uses built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", defaultPath, err)
		}
		log.Printf("Config loaded from %s", defaultPath)
		return cfg, nil
	}

	return config.Default(), nil
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: hexaglow [flags] COMMAND [args]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  on                         turn the panel on")
	fmt.Fprintln(os.Stderr, "  off                        turn the panel off")
	fmt.Fprintln(os.Stderr, "  rgb R G B                  set color (0-255 per channel)")
	fmt.Fprintln(os.Stderr, "  brightness PERCENT         set brightness (0-100)")
	fmt.Fprintln(os.Stderr, "  scene INDEX|NAME [-speed N] select a built-in effect")
	fmt.Fprintln(os.Stderr, "  status                     best-effort state from notifications")
	fmt.Fprintln(os.Stderr, "  scenes                     list known scene names")
	fmt.Fprintln(os.Stderr, "  set [-power on|off|keep] [-rgb R,G,B] [-brightness N] [-scene S] [-scene-speed N]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Flags:")
	flag.PrintDefaults()
}
