package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/ptgott/digivice/gamedata"
	"github.com/ptgott/digivice/storage"
	"github.com/ptgott/digivice/userconfig"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const usage = `usage: digivice [flags] <command> [args]

commands:
  show                  print the saved game document
  get <key>             print the raw value stored at key
  set <key> <value>     store value at key
  update <json-object>  merge the object's fields into the game document
  reset                 start a new game
  remove                delete the saved game document

flags:
`

func main() {
	// Log with filename and line number. This writes to stderr, so it should
	// be thread safe.
	// https://github.com/rs/zerolog/blob/7ccd4c940bf8a02fcc5f10e5475f9d3daff04d57/log/log.go#L13
	log.Logger = log.With().Caller().Logger()

	configPath := flag.String(
		"config",
		"./config.yaml",
		"path to a JSON or YAML file containing your configuration",
	)
	level := flag.String(
		"level",
		"info",
		`log level: "info", "debug", or "warn"`,
	)
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	switch *level {
	case "debug":
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	case "warn":
		log.Logger = log.Logger.Level(zerolog.WarnLevel)
	default:
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	config, err := loadConfig(*configPath)
	if err != nil {
		log.Error().
			Str("configPath", *configPath).
			Err(err).
			Msg("Problem loading your config")
		os.Exit(1)
	}

	checkedConfig, err := config.CheckAndSetDefaults()
	if err != nil {
		log.Error().
			Err(err).
			Msg("Problem validating your config")
		os.Exit(1)
	}

	// Cancel in-flight reads on an interrupt. Pending writes are still
	// flushed when the facade closes.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	facade, err := storage.New(checkedConfig.Storage, storage.PlatformEnvironment(), nil)
	if err != nil {
		log.Error().Err(err).Msg("can't set up storage")
		os.Exit(1)
	}
	log.Debug().Stringer("backend", facade.Backend()).Msg("set up storage")

	err = run(ctx, os.Stdout, facade, &checkedConfig, flag.Args())

	if cerr := facade.Close(); cerr != nil {
		log.Error().Err(cerr).Msg("error closing storage")
	}
	if errors.Is(err, context.Canceled) {
		log.Info().Msg("interrupt: exiting")
		os.Exit(0)
	}
	if err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// loadConfig reads the config file at path. A missing file means the
// defaults, plus any environment overrides.
func loadConfig(path string) (*userconfig.Meta, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Info().Str("configPath", path).Msg("no config file: using defaults")
		m := userconfig.Default()
		return m, userconfig.ApplyEnv(m)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return userconfig.Parse(f)
}

// run executes one command against s and writes its output to out.
func run(ctx context.Context, out io.Writer, s storage.Storage, conf *userconfig.Meta, args []string) error {
	games := gamedata.NewStore(s, conf.Game.DataKey)

	switch args[0] {
	case "show":
		d, err := games.Load(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, d)
	case "get":
		if len(args) != 2 {
			return errors.New("get takes exactly one key")
		}
		v, ok, err := s.GetItem(ctx, args[1])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no value stored at %q", args[1])
		}
		_, err = fmt.Fprintln(out, v)
		return err
	case "set":
		if len(args) != 3 {
			return errors.New("set takes a key and a value")
		}
		s.SetItem(args[1], args[2])
		return nil
	case "update":
		if len(args) != 2 {
			return errors.New("update takes one JSON object")
		}
		var p gamedata.Patch
		if err := json.Unmarshal([]byte(args[1]), &p); err != nil {
			return fmt.Errorf("can't parse the update as a JSON object: %v", err)
		}
		d, err := games.Update(ctx, p)
		if err != nil {
			return err
		}
		return printJSON(out, d)
	case "reset":
		d, err := games.Reset()
		if err != nil {
			return err
		}
		return printJSON(out, d)
	case "remove":
		return games.Remove(ctx)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
