package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/mattn/go-isatty"
	"github.com/phuslu/log"
	"github.com/richinsley/comfy2go/graphapi"
	"github.com/urfave/cli/v2"
	"gorgonia.org/tensor"

	"github.com/knights-analytics/paramnodes"
	"github.com/knights-analytics/paramnodes/config"
	"github.com/knights-analytics/paramnodes/util/fileutil"
)

var configPath string
var basePath string
var inputPath string
var outputPath string
var logLevel string

// codec keeps 64-bit seeds intact by decoding numbers as json.Number.
var codec = jsoniter.Config{UseNumber: true, SortMapKeys: true}.Froze()

var configFlags = []cli.Flag{
	&cli.StringFlag{
		Name:        "config",
		Usage:       "Path to a TOML config file",
		Aliases:     []string{"c"},
		Destination: &configPath,
	},
	&cli.StringFlag{
		Name:        "basePath",
		Usage:       "Directory relative image paths resolve against. Falls back to the config file, then the working directory",
		Aliases:     []string{"b"},
		Destination: &basePath,
	},
	&cli.StringFlag{
		Name:        "output",
		Usage:       "Path to output",
		Aliases:     []string{"o"},
		Destination: &outputPath,
	},
	&cli.StringFlag{
		Name:        "logLevel",
		Usage:       "debug, info, warn or error",
		Destination: &logLevel,
	},
}

var schemaCommand = &cli.Command{
	Name:  "schema",
	Usage: "Print the object_info description of every node",
	Flags: configFlags,
	Action: func(ctx *cli.Context) error {
		conf, err := loadConfig()
		if err != nil {
			return err
		}
		registry, err := paramnodes.NewRegistry(paramnodes.WithBasePath(conf.BasePath))
		if err != nil {
			return err
		}
		out, err := registry.MarshalObjectInfo()
		if err != nil {
			return err
		}

		writer, closeWriter, err := openOutput(ctx.Context, conf.OutputPath, "object_info.json")
		if err != nil {
			return err
		}
		_, err = writer.Write(append(out, '\n'))
		return errors.Join(err, closeWriter())
	},
}

var invokeCommand = &cli.Command{
	Name:  "invoke",
	Usage: "Run nodes described in API prompt format",
	Description: `Invoke expects a path to a file with input in .jsonl format. Each json line in the file must be of the format {"class_type": "ParamInt", "inputs": {"value": 42}} to be processed.
				`,
	ArgsUsage: `
				--input: path to a .jsonl file or a folder with .jsonl files to process. If omitted, the input will be read from stdin.
				--output: path to a folder where to write the output. If omitted, the output will be sent to stdout.
				--basePath: directory relative image paths are resolved against.
				`,
	Flags: append([]cli.Flag{
		&cli.StringFlag{
			Name:        "input",
			Usage:       "Path to the input data",
			Aliases:     []string{"i"},
			Destination: &inputPath,
		},
	}, configFlags...),
	Action: func(ctx *cli.Context) (err error) {
		conf, err := loadConfig()
		if err != nil {
			return err
		}
		registry, err := paramnodes.NewRegistry(paramnodes.WithBasePath(conf.BasePath))
		if err != nil {
			return err
		}

		writer, closeWriter, err := openOutput(ctx.Context, conf.OutputPath, "result-0.jsonl")
		if err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, closeWriter())
		}()

		inputChannel := make(chan promptLine, 1000)
		processedChannel := make(chan []byte, 1000)
		errorsChannel := make(chan error, 1000)
		var processedWg, writeWg sync.WaitGroup

		processedWg.Add(1)
		go processWithRegistry(ctx.Context, &processedWg, inputChannel, processedChannel, errorsChannel, registry)
		writeWg.Add(1)
		go writeOutputs(&writeWg, processedChannel, errorsChannel, writer)

		readErr := readAllInputs(ctx.Context, inputChannel)

		close(inputChannel)
		processedWg.Wait()
		close(processedChannel)
		close(errorsChannel)
		writeWg.Wait()
		return readErr
	},
}

func main() {
	app := &cli.App{
		Name:     "paramnodes",
		Usage:    "Parameter, image and switch nodes for node-graph hosts",
		Commands: []*cli.Command{schemaCommand, invokeCommand},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("paramnodes failed")
	}
}

// loadConfig layers defaults, the optional config file and command line flags.
func loadConfig() (*config.Config, error) {
	conf := config.Defaults()
	if configPath != "" {
		var err error
		conf, err = config.Load(configPath)
		if err != nil {
			return nil, err
		}
	}
	if basePath != "" {
		conf.BasePath = basePath
	}
	if outputPath != "" {
		conf.OutputPath = outputPath
	}
	if logLevel != "" {
		conf.LogLevel = logLevel
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	conf.ApplyLogLevel()
	return conf, nil
}

func openOutput(ctx context.Context, dir, name string) (io.Writer, func() error, error) {
	if dir == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	exists, err := fileutil.FileExists(ctx, dir)
	if err != nil {
		return nil, nil, err
	}
	if !exists {
		if err = fileutil.CreateFile(ctx, dir, true); err != nil {
			return nil, nil, err
		}
	}
	writer, err := fileutil.NewFileWriter(ctx, fileutil.PathJoinSafe(dir, name), "")
	if err != nil {
		return nil, nil, err
	}
	return writer, writer.Close, nil
}

type promptLine struct {
	source string
	line   int
	node   graphapi.PromptNode
}

type result struct {
	ClassType string `json:"class_type"`
	Source    string `json:"source,omitempty"`
	Line      int    `json:"line"`
	Outputs   []any  `json:"outputs,omitempty"`
	Error     string `json:"error,omitempty"`
}

// tensorSummary stands in for a tensor in JSON output.
type tensorSummary struct {
	Shape []int   `json:"shape"`
	Min   float32 `json:"min"`
	Max   float32 `json:"max"`
}

func readAllInputs(ctx context.Context, inputChannel chan promptLine) error {
	if inputPath != "" {
		exists, err := fileutil.FileExists(ctx, inputPath)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("file %s does not exist", inputPath)
		}
		fileWalker := func(ctx context.Context, baseURL, parent string, info os.FileInfo, reader io.Reader) (toContinue bool, err error) {
			if filepath.Ext(info.Name()) == ".jsonl" {
				if err := readInputs(reader, info.Name(), inputChannel); err != nil {
					return false, err
				}
			}
			return true, nil
		}
		if filepath.Ext(inputPath) == ".jsonl" {
			b, err := fileutil.ReadFileBytes(ctx, inputPath)
			if err != nil {
				return err
			}
			return readInputs(bytes.NewReader(b), filepath.Base(inputPath), inputChannel)
		}
		return fileutil.WalkDir()(ctx, inputPath, fileWalker)
	}

	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		// there is something to process on stdin
		return readInputs(os.Stdin, "stdin", inputChannel)
	}
	return nil
}

func readInputs(inputSource io.Reader, source string, inputChannel chan promptLine) error {
	scanner := bufio.NewScanner(inputSource)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var node graphapi.PromptNode
		if err := codec.Unmarshal(scanner.Bytes(), &node); err != nil {
			return fmt.Errorf("%s:%d: %w", source, line, err)
		}
		inputChannel <- promptLine{source: source, line: line, node: node}
	}
	return scanner.Err()
}

func processWithRegistry(ctx context.Context, wg *sync.WaitGroup, inputChannel chan promptLine, processedChannel chan []byte, errorsChannel chan error, registry *paramnodes.Registry) {
	defer wg.Done()
	for input := range inputChannel {
		res := result{ClassType: input.node.ClassType, Source: input.source, Line: input.line}
		outputs, err := registry.InvokePrompt(ctx, input.node)
		if err != nil {
			res.Error = err.Error()
			errorsChannel <- fmt.Errorf("%s:%d: %w", input.source, input.line, err)
		} else {
			res.Outputs = summarize(outputs)
		}
		outputBytes, marshallErr := codec.Marshal(res)
		if marshallErr != nil {
			errorsChannel <- marshallErr
		} else {
			processedChannel <- outputBytes
		}
	}
}

func summarize(outputs []any) []any {
	summarized := make([]any, len(outputs))
	for i, output := range outputs {
		dense, ok := output.(*tensor.Dense)
		if !ok {
			summarized[i] = output
			continue
		}
		summary := tensorSummary{Shape: []int(dense.Shape())}
		if data, ok := dense.Data().([]float32); ok && len(data) > 0 {
			summary.Min, summary.Max = data[0], data[0]
			for _, v := range data {
				summary.Min = min(summary.Min, v)
				summary.Max = max(summary.Max, v)
			}
		}
		summarized[i] = summary
	}
	return summarized
}

func writeOutputs(wg *sync.WaitGroup, processedChannel chan []byte, errorChannel chan error, writeTarget io.Writer) {
	defer wg.Done()
	for processedChannel != nil || errorChannel != nil {
		select {
		case output, ok := <-processedChannel:
			if !ok {
				processedChannel = nil
				continue
			}
			if _, err := writeTarget.Write(append(output, '\n')); err != nil {
				log.Error().Err(err).Msg("writing output")
			}
		case err, ok := <-errorChannel:
			if !ok {
				errorChannel = nil
				continue
			}
			log.Warn().Err(err).Msg("node failed")
		}
	}
}
