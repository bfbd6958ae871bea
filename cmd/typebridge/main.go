package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	flag "github.com/spf13/pflag"

	"github.com/lk2023060901/typebridge/application"
	"github.com/lk2023060901/typebridge/internal/json"
	"github.com/lk2023060901/typebridge/pkg/bridge"
	"github.com/lk2023060901/typebridge/pkg/serializer/temporal"
	"github.com/lk2023060901/typebridge/pkg/wire"
)

var usage = `
Usage:
  typebridge [--config path] command [flags]

Available Commands:
  encode       Print the hinted JSON form of a time value
  decode       Decode hinted JSON from a file or stdin and print a report

`

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Err: %s\n", err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	global := flag.NewFlagSet("typebridge", flag.ContinueOnError)
	global.SetInterspersed(false)
	configPath := global.String("config", "", "Path to config file")
	global.Usage = func() {
		fmt.Fprint(stdout, usage)
		global.PrintDefaults()
	}
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		global.Usage()
		return errors.New("missing command")
	}

	var appArgs []string
	if *configPath != "" {
		appArgs = []string{"--config", *configPath}
	}
	app := application.New(application.WithArgs(appArgs))
	if err := app.Run(); err != nil {
		return err
	}
	defer app.Close()

	command, rest := global.Arg(0), global.Args()[1:]
	switch command {
	case "encode":
		return encode(ctx, app, rest, stdout)
	case "decode":
		return decode(ctx, app, rest, stdin, stdout)
	default:
		global.Usage()
		return errors.Newf("unknown command %q", command)
	}
}

func encode(ctx context.Context, app *application.Application, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("encode", flag.ContinueOnError)
	kindName := fs.StringP("kind", "k", "timestamp", "Time kind: instant, timestamp, dateonly or timeonly")
	timeStr := fs.StringP("time", "t", "", "Time in RFC3339 format, defaults to now")
	if err := fs.Parse(args); err != nil {
		return err
	}

	kind, err := parseKind(*kindName)
	if err != nil {
		return err
	}
	t := time.Now()
	if *timeStr != "" {
		if t, err = time.Parse(time.RFC3339Nano, *timeStr); err != nil {
			return errors.Wrapf(err, "invalid --time %q", *timeStr)
		}
	}

	v, _ := temporal.New(kind, t)
	data, err := app.Bridge().MarshallJSON(ctx, v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, string(data))
	return err
}

type decodeReport struct {
	Type  string `json:"type"`
	Kind  string `json:"kind,omitempty"`
	Value string `json:"value"`
	Match string `json:"match"`
}

func decode(ctx context.Context, app *application.Application, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	file := fs.StringP("file", "f", "", "Read input from file instead of stdin")
	kindName := fs.StringP("kind", "k", "", "Requested time kind, empty lets the type hint decide")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if *file != "" {
		data, err = os.ReadFile(*file)
	} else {
		data, err = io.ReadAll(stdin)
	}
	if err != nil {
		return errors.Wrap(err, "read input")
	}

	w, err := wire.Parse(data)
	if err != nil {
		return err
	}

	var typ reflect.Type
	if *kindName != "" {
		kind, err := parseKind(*kindName)
		if err != nil {
			return err
		}
		typ = kind.Type()
	}

	b := app.Bridge()
	m, err := bridge.NewState(ctx, b).TryUnmarshall(typ, w)
	if err != nil {
		return err
	}
	v, err := b.Unmarshall(ctx, typ, w)
	if err != nil {
		return err
	}

	report := decodeReport{
		Type:  fmt.Sprintf("%T", v),
		Value: fmt.Sprint(v),
		Match: m.String(),
	}
	if tv, ok := v.(temporal.Value); ok {
		report.Kind = tv.Kind().String()
	}
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, string(out))
	return err
}

// parseKind 接受变体名（不区分大小写）或线上类型提示。
func parseKind(name string) (temporal.Kind, error) {
	if k, ok := temporal.ParseKind(name); ok {
		return k, nil
	}
	k, ok := lo.Find(temporal.Kinds(), func(k temporal.Kind) bool {
		return strings.EqualFold(k.String(), name)
	})
	if !ok {
		return 0, errors.Newf("unknown kind %q", name)
	}
	return k, nil
}
