package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"mmcfdisk/internal/config"
	"mmcfdisk/internal/core"
	"mmcfdisk/internal/device"
	"mmcfdisk/internal/fdisk"
	"mmcfdisk/internal/geometry"
)

var defaultLogFormatter = &log.TextFormatter{}

// infoFormatter prints Info events as bare lines.
type infoFormatter struct{}

func (f *infoFormatter) Format(entry *log.Entry) ([]byte, error) {
	if entry.Level == log.InfoLevel {
		return append([]byte(entry.Message), '\n'), nil
	}
	return defaultLogFormatter.Format(entry)
}

func usage() {
	fmt.Println(`mmcfdisk - fdisk for SD/MMC boot media
Usage:
  mmcfdisk [-v] create <dev> [-r] [<sys MB> <user MB> <cache MB>]   # -r: removable (TF/SD) media
  mmcfdisk [-v] print <dev>
  mmcfdisk [-v] view <dev>
  mmcfdisk [-v] geometry <blocks|dev>
  mmcfdisk [-v] new <image> <size>                                 # size: 512|64K|16M|8G
  mmcfdisk [-v] backup <dev> [<out> [compression]]                 # none|gzip|zstd|lz4|xz|lzma|bzip2
  mmcfdisk [-v] restore <dev> <in> [compression]
  mmcfdisk help

Configuration is read from ` + config.Path())
}

func fail(cmd string, err error) {
	fmt.Fprintln(os.Stderr, cmd+":", err)
	os.Exit(2)
}

func main() {
	log.SetFormatter(new(infoFormatter))
	log.SetLevel(log.InfoLevel)

	args := os.Args[1:]
	if len(args) > 0 && (args[0] == "-v" || args[0] == "--verbose") {
		log.SetLevel(log.DebugLevel)
		args = args[1:]
	}
	if len(args) == 0 {
		usage()
		return
	}

	switch args[0] {
	case "help", "-h", "--help":
		usage()
		return
	}

	cfg, defaults, err := settings(args[0], config.Path())
	if err != nil {
		fail("config", err)
	}

	switch args[0] {
	case "create":
		if len(args) < 2 {
			usage()
			os.Exit(1)
		}
		opts, err := createOptions(args[2:], defaults)
		if err != nil {
			fail("create", err)
		}
		if err := runCreate(args[1], opts); err != nil {
			fail("create", err)
		}

	case "print":
		if len(args) != 2 {
			usage()
			os.Exit(1)
		}
		if err := runPrint(args[1]); err != nil {
			fail("print", err)
		}

	case "view":
		if len(args) != 2 {
			usage()
			os.Exit(1)
		}
		if err := runView(args[1]); err != nil {
			fail("view", err)
		}

	case "geometry":
		if len(args) != 2 {
			usage()
			os.Exit(1)
		}
		if err := runGeometry(args[1]); err != nil {
			fail("geometry", err)
		}

	case "new":
		if len(args) != 3 {
			usage()
			os.Exit(1)
		}
		if err := runNew(args[1], args[2]); err != nil {
			fail("new", err)
		}

	case "backup":
		if len(args) < 2 || len(args) > 4 {
			usage()
			os.Exit(1)
		}
		out, comp := "", cfg.Compression
		if len(args) > 2 {
			out = args[2]
		}
		if len(args) == 4 {
			comp = args[3]
		}
		if err := runBackup(args[1], out, comp); err != nil {
			fail("backup", err)
		}

	case "restore":
		if len(args) != 3 && len(args) != 4 {
			usage()
			os.Exit(1)
		}
		comp := ""
		if len(args) == 4 {
			comp = args[3]
		}
		if err := runRestore(args[1], args[2], comp); err != nil {
			fail("restore", err)
		}

	default:
		usage()
		os.Exit(1)
	}
}

// settings loads the configuration for commands that use it. Others run
// on built-in values so a broken config file does not lock them out.
func settings(cmd, path string) (config.Config, fdisk.Defaults, error) {
	switch cmd {
	case "create", "backup":
	default:
		return config.Default(), fdisk.StandardDefaults, nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, fdisk.Defaults{}, err
	}
	defaults, err := cfg.Defaults()
	return cfg, defaults, err
}

// createOptions parses "[-r] [<sys> <user> <cache>]"; sizes are in MB and
// must be given all together.
func createOptions(args []string, defaults fdisk.Defaults) (fdisk.Options, error) {
	opts := fdisk.Options{Defaults: &defaults}
	if len(args) > 0 && (args[0] == "-r" || args[0] == "--removable") {
		opts.Media = fdisk.Removable
		args = args[1:]
	}
	switch len(args) {
	case 0:
		return opts, nil
	case 3:
		var sizes [3]uint64
		for i, a := range args {
			v, err := core.ParseMB(a)
			if err != nil {
				return opts, err
			}
			sizes[i] = v
		}
		opts.Sizes = &fdisk.Sizes{System: sizes[0], UserData: sizes[1], Cache: sizes[2]}
		return opts, nil
	default:
		return opts, fmt.Errorf("expected 0 or 3 partition sizes, got %d", len(args))
	}
}

func totalBlocksOf(arg string) (int64, error) {
	var n int64
	if _, err := fmt.Sscanf(arg, "%d", &n); err == nil && fmt.Sprint(n) == arg {
		return n, nil
	}
	dev, err := device.Open(arg, true)
	if err != nil {
		return 0, err
	}
	defer dev.Close()
	return dev.TotalBlocks()
}

func runGeometry(arg string) error {
	total, err := totalBlocksOf(arg)
	if err != nil {
		return err
	}
	g := geometry.Resolve(total)
	fmt.Printf("mode:      %s\n", g.Mode)
	fmt.Printf("C/H/S:     %s\n", g.End)
	fmt.Printf("unit:      %d\n", g.Unit)
	fmt.Printf("total:     %d\n", g.TotalBlocks)
	fmt.Printf("available: %d\n", g.AvailableBlocks)
	return nil
}
