package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/mathhub-edu/mathhub/cmd/mathhub/config"
	"github.com/mathhub-edu/mathhub/storage"
)

func usage() {
	_, _ = fmt.Fprintf(os.Stderr, "mhmigrate: move math hub data between storages\n")
	_, _ = fmt.Fprintf(os.Stderr, "\n")
	_, _ = fmt.Fprintf(os.Stderr, "Subcommands:\n")
	_, _ = fmt.Fprintf(os.Stderr, "  localstorage  Import a local storage dump of the browser-only site\n")
	_, _ = fmt.Fprintf(os.Stderr, "  db            Copy all data from the configured storage to another one\n")
	_, _ = fmt.Fprintf(os.Stderr, "\n")
	_, _ = fmt.Fprintf(os.Stderr, "Use 'mhmigrate <subcommand> -h' for help on a subcommand.\n")
}

func localStorageCmd(args []string) int {
	fs := flag.NewFlagSet("localstorage", flag.ExitOnError)
	var (
		configFile = fs.String("config", "", "Path of the server config file")
		src        = fs.String("src", "", "Path of a json object mapping local storage keys to their values")
		dryRun     = fs.Bool("dry-run", false, "Parse and report without writing")
		v          = fs.Bool("v", false, "Verbose logging")
	)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(
			os.Stderr, "Usage: mhmigrate localstorage -src <dump.json> [-config <config.yaml>] [-dry-run] [-v]\n",
		)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *v {
		log.SetLevel(log.DebugLevel)
	}
	if *src == "" {
		_, _ = fmt.Fprintln(os.Stderr, "-src is required")
		fs.Usage()
		return 2
	}
	data, err := os.ReadFile(*src)
	if err != nil {
		log.WithError(err).Error("could not read dump")
		return 1
	}
	var dump map[string]json.RawMessage
	if err = json.Unmarshal(data, &dump); err != nil {
		log.WithError(err).Error("dump is not a json object")
		return 1
	}

	config.Load(*configFile)
	c := config.Get()
	kv, closer, err := config.LoadDurable(c)
	if err != nil {
		log.WithError(err).Error("could not open storage")
		return 1
	}
	defer func() { _ = closer() }()

	stats, err := importLocalStorage(dump, kv, c.Gate.MaxAttempts, c.Gate.MaxSessions, *dryRun)
	if err != nil {
		log.WithError(err).Error("import failed")
		return 1
	}
	log.WithFields(
		log.Fields{
			"new-codes":  stats.Codes,
			"admin-code": stats.AdminCode,
			"attempts":   stats.Attempts,
			"sessions":   stats.Sessions,
			"dry-run":    *dryRun,
		},
	).Info("local storage imported")
	return 0
}

func dbCmd(args []string) int {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	var (
		configFile = fs.String("config", "", "Path of the server config file naming the source storage")
		destDriver = fs.String("dest-driver", "", "Destination driver (sqlite, mysql, postgres, badger)")
		destDir    = fs.String("dest-dir", "", "Destination data directory (for sqlite and badger)")
		destDSN    = fs.String("dest-dsn", "", "Destination DSN (for mysql and postgres)")
		dryRun     = fs.Bool("dry-run", false, "Perform a dry run without writing to destination")
		v          = fs.Bool("v", false, "Verbose logging")
	)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(
			os.Stderr,
			"Usage: mhmigrate db -dest-driver=<driver> [-dest-dir=<dir>|-dest-dsn=<dsn>] [-config <config.yaml>] [-dry-run] [-v]\n",
		)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *v {
		log.SetLevel(log.DebugLevel)
	}
	if *destDriver == "" {
		_, _ = fmt.Fprintln(os.Stderr, "-dest-driver is required")
		fs.Usage()
		return 2
	}

	config.Load(*configFile)
	src, closeSrc, err := config.LoadDurable(config.Get())
	if err != nil {
		log.WithError(err).Error("could not open source storage")
		return 1
	}
	defer func() { _ = closeSrc() }()
	dst, closeDst, err := storage.LoadDurable(
		storage.Config{
			Driver:  storage.DriverType(*destDriver),
			DSN:     *destDSN,
			DataDir: *destDir,
		},
	)
	if err != nil {
		log.WithError(err).Error("could not open destination storage")
		return 1
	}
	defer func() { _ = closeDst() }()

	n, err := copyDurable(src, dst, *dryRun)
	if err != nil {
		log.WithError(err).Error("copy failed")
		return 1
	}
	log.WithFields(
		log.Fields{
			"entries": n,
			"dest":    *destDriver,
			"dry-run": *dryRun,
		},
	).Info("storage copied")
	return 0
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	sub := os.Args[1]
	var code int
	switch sub {
	case "localstorage":
		code = localStorageCmd(os.Args[2:])
	case "db":
		code = dbCmd(os.Args[2:])
	case "-h", "--help", "help":
		usage()
		code = 0
	default:
		_, _ = fmt.Fprintf(os.Stderr, "unknown subcommand: %s\n\n", sub)
		usage()
		code = 2
	}
	os.Exit(code)
}
