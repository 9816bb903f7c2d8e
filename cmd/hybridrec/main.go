package main

import "github.com/rushteam/hybridrec/internal/cli"

// 版本信息由链接器通过 -ldflags 注入
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cli.Execute(version, commit, date)
}
