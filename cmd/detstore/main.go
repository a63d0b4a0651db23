package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"det-ensemble/internal/det"
	"det-ensemble/internal/storage"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const usage = `Usage: detstore [-db <path>] <command> [arguments]

Commands:
  import <name> <file>   validate a tree model file and store it as <name>
  export <name> [file]   write the stored model to file (stdout by default)
  list                   list stored models
  delete <name>          remove a stored model

Stored models are loaded by detmulti as bolt:<db-path>#<name>.

Flags:
`

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Fatal().Err(err).Msg("detstore failed")
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("detstore", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	dbPath := fs.String("db", "models.db", "Path to BoltDB model store")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("missing command")
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "import":
		if len(rest) != 2 {
			return errors.New("usage: import <name> <file>")
		}
		return importModel(*dbPath, rest[0], rest[1])
	case "export":
		if len(rest) < 1 || len(rest) > 2 {
			return errors.New("usage: export <name> [file]")
		}
		out := ""
		if len(rest) == 2 {
			out = rest[1]
		}
		return exportModel(*dbPath, rest[0], out, stdout)
	case "list":
		return listModels(*dbPath, stdout)
	case "delete":
		if len(rest) != 1 {
			return errors.New("usage: delete <name>")
		}
		return deleteModel(*dbPath, rest[0])
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func importModel(dbPath, name, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read model file: %w", err)
	}

	format := det.FormatFromPath(path)
	tree, err := det.Decode(bytes.NewReader(data), format)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	store, err := storage.Open(dbPath, false)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.PutModel(name, string(format), data); err != nil {
		return err
	}

	log.Info().
		Str("name", name).
		Str("db", dbPath).
		Int("dimensions", tree.DimensionBound()).
		Uint64("weight", tree.TrainingPartitionSize()).
		Msg("model imported")
	return nil
}

func exportModel(dbPath, name, path string, stdout io.Writer) error {
	store, err := storage.Open(dbPath, true)
	if err != nil {
		return err
	}
	defer store.Close()

	record, err := store.GetModel(name)
	if err != nil {
		return err
	}

	if path == "" || path == "-" {
		_, err = stdout.Write(record.Payload)
		return err
	}
	return os.WriteFile(path, record.Payload, 0o644)
}

func listModels(dbPath string, stdout io.Writer) error {
	store, err := storage.Open(dbPath, true)
	if err != nil {
		return err
	}
	defer store.Close()

	models, err := store.ListModels()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tFORMAT\tSIZE\tSTORED")
	for _, m := range models {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", m.Name, m.Format, m.Size, m.StoredAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

func deleteModel(dbPath, name string) error {
	store, err := storage.Open(dbPath, false)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.DeleteModel(name); err != nil {
		return err
	}
	log.Info().Str("name", name).Msg("model deleted")
	return nil
}
