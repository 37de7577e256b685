package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/wfunc/moonbag/internal/game/sim"
	"gopkg.in/yaml.v3"
)

func main() {
	var (
		games      = flag.Int("games", 10000, "每个策略模拟的局数")
		seed       = flag.Uint64("seed", 1, "随机种子")
		strategies = flag.String("strategies", "", "策略 YAML 文件，为空时使用内置策略")
		output     = flag.String("out", "", "报告输出文件，为空时输出到标准输出")
	)
	flag.Parse()

	if err := run(*games, *seed, *strategies, *output); err != nil {
		fmt.Fprintf(os.Stderr, "模拟失败: %v\n", err)
		os.Exit(1)
	}
}

func run(games int, seed uint64, strategyPath, output string) error {
	list := sim.DefaultStrategies()
	if strategyPath != "" {
		loaded, err := sim.LoadStrategies(strategyPath)
		if err != nil {
			return err
		}
		list = loaded
	}

	reports := make([]*sim.Report, 0, len(list))
	for _, s := range list {
		report, err := sim.Run(s, games, seed)
		if err != nil {
			return err
		}
		reports = append(reports, report)
	}

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("创建报告文件失败: %w", err)
		}
		defer f.Close()
		w = f
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(map[string]interface{}{"reports": reports}); err != nil {
		return fmt.Errorf("写入报告失败: %w", err)
	}
	return enc.Close()
}
