package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	cfgpkg "subjectsplit/internal/config"
	"subjectsplit/internal/diag"
	"subjectsplit/internal/pipeline"
	"subjectsplit/pkg/contract"
)

var pipelineRun = pipeline.Run

// stderr 为用户可见输出（Usage/Error/终端提示）。
var stderr io.Writer = os.Stderr

// 退出码
const (
	exitOK     = 0
	exitFail   = 1 // 参数个数错误、解析/序列化/写出失败
	exitConfig = 2 // 配置文件、环境变量或组件选项非法
)

// subjectsplit [flags] <CSV file>
// 读取带表头的课程记录，按开讲年度分组，每个年度写出 <year>.json。
func main() {
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	os.Exit(run())
}

func run() int {
	start := time.Now()
	corrID := uuid.NewString()
	prog := "subjectsplit"
	if len(os.Args) > 0 {
		prog = os.Args[0]
	}
	// flags
	var (
		flagConfig    string
		flagEnvFile   string
		flagOutputDir string
		flagSchema    string
		flagSortYears bool
		flagInitDir   string
		flagStatus    bool
	)
	fs := flag.CommandLine
	fs.SetOutput(io.Discard)
	fs.StringVar(&flagConfig, "config", "", "配置文件路径（JSON）")
	fs.StringVar(&flagEnvFile, "env-file", "", "加载指定 .env 文件（不覆盖已有环境变量）；默认不加载")
	fs.StringVar(&flagOutputDir, "output-dir", "", "输出目录（默认当前工作目录）")
	fs.StringVar(&flagSchema, "schema", "", "表头映射：auto|ja|en（默认 auto）")
	fs.BoolVar(&flagSortYears, "sort-years", false, "按年度升序写出（默认按首次出现顺序）")
	fs.StringVar(&flagInitDir, "init-config", "", "在指定目录生成默认配置 config.json 和 .env 模板（若已存在则跳过，不覆盖）；不带值时默认当前目录")
	fs.BoolVar(&flagStatus, "status", false, "终端状态提示（stderr）。TTY 动态刷新；非 TTY 打点输出")
	normalizeInitArg()
	if err := fs.Parse(os.Args[1:]); err != nil {
		// -h 同样没有输入文件
		if errors.Is(err, flag.ErrHelp) {
			printUsage(prog, true)
			return exitFail
		}
		fprintf("Error: %v\n", err)
		printUsage(prog, false)
		return exitFail
	}

	// --init-config: 生成模板并退出
	if initDir := strings.TrimSpace(flagInitDir); initDir != "" {
		if err := initConfig(initDir); err != nil {
			fprintf("Error: %v\n", err)
			return exitConfig
		}
		return exitOK
	}

	// 位置参数：恰好一个输入（在任何 I/O 之前校验）
	args := fs.Args()
	if len(args) != 1 {
		printUsage(prog, false)
		return exitFail
	}

	// .env 仅在 --env-file 显式指定时加载（不覆盖已有 ENV），工作目录中的 .env 不生效。
	if envFile := strings.TrimSpace(flagEnvFile); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			fprintf("Error: %v: %s: %v\n", contract.ErrConfigInvalid, envFile, err)
			return exitConfig
		}
	}

	cfg, err := loadConfig(flagConfig)
	if err != nil {
		fprintf("Error: %v\n", err)
		return exitConfig
	}

	// CLI 覆盖
	overCLI := cfgpkg.Config{OutputDir: flagOutputDir, Schema: flagSchema}
	if flagSortYears {
		overCLI.SortYears = &flagSortYears
	}
	cfg = cfgpkg.Merge(cfg, overCLI)
	// 位置参数原样作为输入路径（不去空白）
	cfg.Input = args[0]

	if err := cfgpkg.Validate(cfg); err != nil {
		fprintf("Error: %v\n", err)
		return exitConfig
	}

	logger := diag.NewLogger(corrID, diag.Options{Level: cfg.Logging.Level, Dir: cfg.Logging.Dir, Format: cfg.Logging.Format})
	defer logger.Close()

	comp, set, err := cfgpkg.Assemble(cfg)
	if err != nil {
		fprintf("Error: %v\n", err)
		logger.Error("config", string(diag.Classify(err)), err.Error(), &start)
		return exitConfig
	}

	// 终端信息提示（非日志）：按 CLI 启用，默认关闭
	term := diag.NewTerminal(stderr, flagStatus)
	diag.SetTerminal(term)
	defer diag.SetTerminal(nil)

	// debug: 输出运行时配置信息
	logger.DebugStart("config", "effective", "", map[string]string{
		"input":      set.Input,
		"output_dir": set.OutputDir,
		"sort_years": strconv.FormatBool(set.SortYears),
		"schema":     cfg.Schema,
		"reader":     cfg.Components.Reader,
		"encoder":    cfg.Components.Encoder,
		"writer":     cfg.Components.Writer,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// 运行流水线
	t := logger.Start("pipeline", "run")
	if err := pipelineRun(ctx, comp, set, logger); err != nil {
		code := string(diag.Classify(err))
		logger.Error("pipeline", code, "first error", &start)
		diag.IncOp("pipeline", "run", "error")
		if code != string(diag.CodeUnknown) {
			diag.IncError("pipeline", code)
		}
		fprintf("Error: %v\n", err)
		return exitFail
	}
	t.Finish("run", 0)
	diag.IncOp("pipeline", "run", "success")
	return exitOK
}

// loadConfig: Defaults < JSON（--config / SUBJECTSPLIT_CONFIG_FILE / SUBJECTSPLIT_CONFIG_JSON）< ENV。
func loadConfig(path string) (cfgpkg.Config, error) {
	cfg := cfgpkg.Defaults()
	var raw []byte
	if s := os.Getenv(cfgpkg.EnvPrefix + "CONFIG_JSON"); strings.TrimSpace(s) != "" {
		raw = []byte(s)
	}
	if path == "" {
		path = strings.TrimSpace(os.Getenv(cfgpkg.EnvPrefix + "CONFIG_FILE"))
	}
	if path != "" || len(raw) > 0 {
		base, err := cfgpkg.LoadJSON(path, raw)
		if err != nil {
			return cfg, err
		}
		cfg = cfgpkg.Merge(cfg, base)
	}
	over, err := cfgpkg.EnvOverlay(os.Environ())
	if err != nil {
		return cfg, err
	}
	return cfgpkg.Merge(cfg, over), nil
}

func printUsage(prog string, withFlags bool) {
	fprintf("Usage: %s <CSV file>\n", prog)
	if withFlags {
		flag.CommandLine.SetOutput(stderr)
		flag.CommandLine.PrintDefaults()
		flag.CommandLine.SetOutput(io.Discard)
	}
}

func fprintf(format string, a ...any) { _, _ = fmt.Fprintf(stderr, format, a...) }

func initConfig(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := writeConfig(filepath.Join(dir, "config.json"), cfgpkg.DefaultTemplateConfig()); err != nil {
		return err
	}
	// .env 失败不影响 config.json
	if err := writeDotEnv(filepath.Join(dir, ".env")); err != nil {
		fprintf("提示：.env 生成失败（已跳过）：%v\n", err)
	}
	return nil
}

func writeConfig(path string, c cfgpkg.Config) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	if path == "-" {
		_, err = os.Stdout.Write(append(b, '\n'))
		return err
	}
	// 不覆盖已存在文件
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()
	if _, err := f.Write(append(b, '\n')); err != nil {
		return err
	}
	return nil
}

// writeDotEnv 生成 .env 模板（若文件已存在则跳过）。
func writeDotEnv(path string) error {
	env := map[string]string{
		cfgpkg.EnvPrefix + "CONFIG_FILE":          "",
		cfgpkg.EnvPrefix + "CONFIG_JSON":          "",
		cfgpkg.EnvPrefix + "OUTPUT_DIR":           "",
		cfgpkg.EnvPrefix + "SCHEMA":               "",
		cfgpkg.EnvPrefix + "SORT_YEARS":           "",
		cfgpkg.EnvPrefix + "LOG_LEVEL":            "",
		cfgpkg.EnvPrefix + "LOG_DIR":              "",
		cfgpkg.EnvPrefix + "LOG_FORMAT":           "",
		cfgpkg.EnvPrefix + "COMPONENTS_READER":    "",
		cfgpkg.EnvPrefix + "COMPONENTS_ENCODER":   "",
		cfgpkg.EnvPrefix + "COMPONENTS_WRITER":    "",
		cfgpkg.EnvPrefix + "OPTIONS_READER_JSON":  "",
		cfgpkg.EnvPrefix + "OPTIONS_ENCODER_JSON": "",
		cfgpkg.EnvPrefix + "OPTIONS_WRITER_JSON":  "",
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	// 空值表示未设置；优先级：CLI > ENV(.env) > JSON
	return godotenv.Write(env, path)
}

// normalizeInitArg: 允许 --init-config 在未提供路径值时采用默认值当前目录 "."。
//
//	--init-config                => 等价于 --init-config .
//	--init-config=out
//	--init-config out
func normalizeInitArg() {
	args := os.Args
	if len(args) <= 1 {
		return
	}
	out := make([]string, 0, len(args)+1)
	out = append(out, args[0])
	for i := 1; i < len(args); i++ {
		a := args[i]
		out = append(out, a)
		if a == "--init-config" || a == "-init-config" {
			if i == len(args)-1 || strings.HasPrefix(args[i+1], "-") {
				out = append(out, ".")
			}
		}
	}
	os.Args = out
}
