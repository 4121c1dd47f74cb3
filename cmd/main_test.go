package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/knights-analytics/paramnodes/testcases/embedded"
)

func newApp() *cli.App {
	return &cli.App{
		Name:     "paramnodes",
		Usage:    "Parameter, image and switch nodes for node-graph hosts",
		Commands: []*cli.Command{schemaCommand, invokeCommand},
	}
}

type resultLine struct {
	ClassType string            `json:"class_type"`
	Source    string            `json:"source"`
	Line      int               `json:"line"`
	Outputs   []json.RawMessage `json:"outputs"`
	Error     string            `json:"error"`
}

func readResults(t *testing.T, file string) []resultLine {
	t.Helper()
	b, err := os.ReadFile(file)
	check(t, err)
	var results []resultLine
	scanner := bufio.NewScanner(bytes.NewReader(b))
	for scanner.Scan() {
		var r resultLine
		check(t, json.Unmarshal(scanner.Bytes(), &r))
		results = append(results, r)
	}
	check(t, scanner.Err())
	return results
}

func TestInvokeCli(t *testing.T) {
	baseArgs := os.Args[0:1:1]

	// write the test data and test recursive reads and processing from folder
	testDataDir := t.TempDir()
	recurseDir := path.Join(testDataDir, "cliRecurseTest")
	outputDir := t.TempDir()
	err := os.MkdirAll(recurseDir, os.ModePerm)
	check(t, err)
	err = os.WriteFile(path.Join(testDataDir, "test-0.jsonl"), embedded.PromptsData, os.ModePerm)
	check(t, err)
	err = os.WriteFile(path.Join(recurseDir, "test-1.jsonl"), embedded.PromptsData, os.ModePerm)
	check(t, err)

	args := append(baseArgs, "invoke", fmt.Sprintf("--input=%s", testDataDir), fmt.Sprintf("--output=%s", outputDir))
	check(t, newApp().Run(args))

	results := readResults(t, path.Join(outputDir, "result-0.jsonl"))
	require.Len(t, results, 14)

	byLine := map[int]resultLine{}
	for _, r := range results {
		byLine[r.Line] = r
	}
	assert.JSONEq(t, `"a watercolor fox"`, string(byLine[1].Outputs[0]))
	assert.Equal(t, "18446744073709551615", string(byLine[2].Outputs[0]))
	assert.JSONEq(t, `-100`, string(byLine[3].Outputs[0]))
	assert.JSONEq(t, `false`, string(byLine[4].Outputs[0]))
	assert.JSONEq(t, `"sd_xl_base_1.0.safetensors"`, string(byLine[5].Outputs[0]))
	assert.JSONEq(t, `"base"`, string(byLine[6].Outputs[0]))
	assert.Contains(t, byLine[7].Error, "linked to another node")
	assert.Empty(t, byLine[7].Outputs)
}

func TestInvokeImageCli(t *testing.T) {
	baseArgs := os.Args[0:1:1]

	basePath := t.TempDir()
	outputDir := t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 6))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.SetNRGBA(0, 0, color.NRGBA{0, 0, 0, 0})
	check(t, os.MkdirAll(path.Join(basePath, "input"), os.ModePerm))
	f, err := os.Create(path.Join(basePath, "input", "cat.png"))
	check(t, err)
	check(t, png.Encode(f, img))
	check(t, f.Close())

	inputFile := path.Join(t.TempDir(), "prompts.jsonl")
	prompts := `{"class_type": "ParamImage", "inputs": {"image_path": "input/cat.png"}}
{"class_type": "ParamImage", "inputs": {"image_path": "input/dog.png"}}
`
	check(t, os.WriteFile(inputFile, []byte(prompts), os.ModePerm))

	args := append(baseArgs, "invoke", fmt.Sprintf("--input=%s", inputFile), fmt.Sprintf("--output=%s", outputDir), fmt.Sprintf("--basePath=%s", basePath))
	check(t, newApp().Run(args))

	results := readResults(t, path.Join(outputDir, "result-0.jsonl"))
	require.Len(t, results, 2)
	require.Len(t, results[0].Outputs, 2)
	assert.JSONEq(t, `{"shape": [1, 6, 8, 3], "min": 0, "max": 1}`, string(results[0].Outputs[0]))
	assert.JSONEq(t, `{"shape": [1, 6, 8], "min": 0, "max": 1}`, string(results[0].Outputs[1]))
	assert.Contains(t, results[1].Error, "image not found at path: "+path.Join(basePath, "input", "dog.png"))
}

func TestSchemaCli(t *testing.T) {
	baseArgs := os.Args[0:1:1]
	outputDir := t.TempDir()

	configFile := path.Join(t.TempDir(), "config.toml")
	conf := fmt.Sprintf("base_path = %q\nlog_level = \"warn\"\noutput_path = %q\n", t.TempDir(), outputDir)
	check(t, os.WriteFile(configFile, []byte(conf), os.ModePerm))

	args := append(baseArgs, "schema", fmt.Sprintf("--config=%s", configFile))
	check(t, newApp().Run(args))

	b, err := os.ReadFile(path.Join(outputDir, "object_info.json"))
	check(t, err)
	var info map[string]json.RawMessage
	check(t, json.Unmarshal(b, &info))
	for _, class := range []string{"ParamString", "ParamInt", "ParamFloat", "ParamBoolean", "ParamUniversal", "ParamImage", "HelperModelSwitch"} {
		assert.Contains(t, info, class)
	}
}

func TestSchemaCliCreatesOutputDir(t *testing.T) {
	baseArgs := os.Args[0:1:1]
	outputDir := path.Join(t.TempDir(), "schemas", "v1")

	args := append(baseArgs, "schema", fmt.Sprintf("--output=%s", outputDir))
	check(t, newApp().Run(args))

	b, err := os.ReadFile(path.Join(outputDir, "object_info.json"))
	check(t, err)
	assert.Contains(t, string(b), `"ParamImage"`)
}

func TestInvalidLogLevel(t *testing.T) {
	baseArgs := os.Args[0:1:1]
	args := append(baseArgs, "schema", "--logLevel=loud")
	assert.Error(t, newApp().Run(args))
}

func check(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s", err.Error())
	}
}
