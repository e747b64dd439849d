package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/friture/friture-cli/internal/iec"
	"github.com/friture/friture-cli/internal/session"
	"github.com/friture/friture-cli/internal/ui"
	"github.com/spf13/pflag"
)

func iecCommand() *Command {
	return &Command{
		Name:        "iec",
		Description: "Map dB levels to IEC 60268-18 meter positions",
		Usage: `iec <dB>... [options]

Options:
  --raw    Print only the positions, one per line

Examples:
  iec -20 -6 0
  iec --raw -45.5`,
		Run: iecCmd,
	}
}

func parseLevels(args []string) ([]float64, error) {
	levels := make([]float64, 0, len(args))
	for _, arg := range args {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", arg, iec.ErrInvalidLevel)
		}
		levels = append(levels, v)
	}
	return levels, nil
}

func iecCmd(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	flags := pflag.NewFlagSet("iec", pflag.ContinueOnError)
	raw := flags.Bool("raw", false, "Print only the positions")
	flags.SetOutput(env.Stderr)

	if err := flags.Parse(ReorderArgsForFlags(flags, args)); err != nil {
		return err
	}
	if flags.NArg() == 0 {
		return fmt.Errorf("usage: iec <dB>...")
	}
	levels, err := parseLevels(flags.Args())
	if err != nil {
		return fmt.Errorf("iec: %w", err)
	}

	meter := ui.NewMeter(0)
	var failed error
	for i, dB := range levels {
		pos, err := iec.Checked(dB)
		if err != nil {
			fmt.Fprintf(env.Stderr, "iec: %s: %v\n", flags.Arg(i), err)
			failed = err
			continue
		}
		if *raw {
			fmt.Fprintln(env.Stdout, strconv.FormatFloat(pos, 'f', -1, 64))
			continue
		}
		fmt.Fprintln(env.Stdout, meter.Line(dB))
	}
	if !*raw && len(levels) > 0 {
		fmt.Fprintln(env.Stdout, meter.Scale())
	}
	return failed
}

// maxMeterRows bounds the output of meter.
const maxMeterRows = 1000

func meterCommand() *Command {
	return &Command{
		Name:        "meter",
		Description: "Draw the IEC meter scale over a range of levels",
		Usage: `meter [options]

Options:
  --from dB   Lowest level (default -70)
  --to dB     Highest level (default 0)
  --step dB   Distance between rows (default 5)
  -w, --width N  Bar width in cells (default 40)

Examples:
  meter
  meter --from -30 --to 6 --step 3`,
		Run: meterCmd,
	}
}

func meterCmd(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	flags := pflag.NewFlagSet("meter", pflag.ContinueOnError)
	from := flags.Float64("from", iec.Floor, "Lowest level")
	to := flags.Float64("to", 0, "Highest level")
	step := flags.Float64("step", 5, "Distance between rows")
	width := flags.IntP("width", "w", ui.DefaultMeterWidth, "Bar width")
	flags.SetOutput(env.Stderr)

	if err := flags.Parse(ReorderArgsForFlags(flags, args)); err != nil {
		return err
	}
	if flags.NArg() > 0 {
		return fmt.Errorf("usage: meter [--from dB] [--to dB] [--step dB]")
	}
	if !(*step > 0) || math.IsInf(*step, 0) {
		return fmt.Errorf("meter: step must be a positive number")
	}
	if math.IsNaN(*from) || math.IsNaN(*to) || math.IsInf(*from, 0) || math.IsInf(*to, 0) {
		return fmt.Errorf("meter: %w", iec.ErrInvalidLevel)
	}
	if *from > *to {
		return fmt.Errorf("meter: --from (%g) is above --to (%g)", *from, *to)
	}

	// Count rows instead of accumulating the step to avoid drift
	span := math.Floor((*to-*from) / *step + 1e-9)
	if span >= maxMeterRows {
		return fmt.Errorf("meter: %.0f rows exceed the limit of %d, use a larger --step", span+1, maxMeterRows)
	}

	meter := ui.NewMeter(*width)
	for i := int(span); i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprintln(env.Stdout, meter.Line(*from+float64(i)**step))
	}
	fmt.Fprintln(env.Stdout, meter.Scale())
	return nil
}

func levelCommand() *Command {
	return &Command{
		Name:        "level",
		Description: "Measure RMS and peak level of audio samples",
		Usage: `level [file]

Reads whitespace-separated samples in the range [-1, 1] from file,
or from standard input when no file is given.

Examples:
  level samples.txt`,
		Run: levelCmd,
	}
}

func levelCmd(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("usage: level [file]")
	}

	var r io.Reader = env.Stdin
	name := "stdin"
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("level: %w", err)
		}
		defer f.Close()
		r = f
		name = args[0]
	}
	if r == nil {
		return fmt.Errorf("level: no input")
	}

	samples, err := readSamples(r)
	if err != nil {
		return fmt.Errorf("level: %s: %w", name, err)
	}
	if len(samples) == 0 {
		return fmt.Errorf("level: %s: no samples", name)
	}

	rms, peak := iec.Levels(samples)
	meter := ui.NewMeter(0)
	fmt.Fprintf(env.Stdout, "%s %s\n", ui.MutedStyle.Render(fmt.Sprintf("%-5s", "RMS")), meter.Line(rms))
	fmt.Fprintf(env.Stdout, "%s %s\n", ui.MutedStyle.Render(fmt.Sprintf("%-5s", "Peak")), meter.Line(peak))
	fmt.Fprintf(env.Stdout, "      %s\n", meter.Scale())
	fmt.Fprintln(env.Stdout, ui.MutedStyle.Render(fmt.Sprintf("%d samples", len(samples))))
	return nil
}

func readSamples(r io.Reader) ([]float64, error) {
	var samples []float64
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)
	for scanner.Scan() {
		v, err := strconv.ParseFloat(scanner.Text(), 64)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %q is not a number", len(samples)+1, scanner.Text())
		}
		if math.IsNaN(v) {
			return nil, fmt.Errorf("sample %d: %w", len(samples)+1, iec.ErrInvalidLevel)
		}
		samples = append(samples, v)
	}
	return samples, scanner.Err()
}

func peakCommand() *Command {
	return &Command{
		Name:        "peak",
		Description: "Run levels through the ballistic peak hold",
		Usage: `peak <dB>... [options]

Each level is one meter update. The peak is held for 32 updates,
then decays with an accelerating factor.

Options:
  -t, --tail N  Feed N updates of silence after the levels (default 0)

Examples:
  peak -12 -30 -30
  peak --tail 40 -6`,
		Run: peakCmd,
	}
}

func peakCmd(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	flags := pflag.NewFlagSet("peak", pflag.ContinueOnError)
	tail := flags.IntP("tail", "t", 0, "Updates of silence after the levels")
	flags.SetOutput(env.Stderr)

	if err := flags.Parse(ReorderArgsForFlags(flags, args)); err != nil {
		return err
	}
	if flags.NArg() == 0 {
		return fmt.Errorf("usage: peak <dB>... [--tail N]")
	}
	if *tail < 0 {
		return fmt.Errorf("peak: tail must not be negative")
	}
	levels, err := parseLevels(flags.Args())
	if err != nil {
		return fmt.Errorf("peak: %w", err)
	}
	for _, dB := range levels {
		if math.IsNaN(dB) {
			return fmt.Errorf("peak: %w", iec.ErrInvalidLevel)
		}
	}
	for i := 0; i < *tail; i++ {
		levels = append(levels, math.Inf(-1))
	}

	table := ui.NewTable(env.Stdout)
	table.SetHeaders("#", "LEVEL", "POSITION", "PEAK", "")
	table.AlignRight(0, 1, 2, 3)

	bp := iec.NewBallisticPeak()
	for i, dB := range levels {
		if err := ctx.Err(); err != nil {
			return err
		}
		pos := iec.FromDB(dB)
		peak, changed := bp.Update(pos)
		mark := ""
		if !changed && peak > 0 {
			mark = ui.MutedStyle.Render("hold")
		}
		table.AddRow(
			strconv.Itoa(i+1),
			ui.LevelStyle.Render(iec.FormatLevel(dB)),
			fmt.Sprintf("%.4f", pos),
			fmt.Sprintf("%.4f", peak),
			mark,
		)
	}
	table.Render()
	return nil
}
