package main

import (
	"github.com/shouni/go-merchant-feed/cmd"
)

// main 関数は、CLIのエントリポイントです。サブコマンドの登録と実行は cmd パッケージに委譲します。
func main() {
	cmd.Execute()
}
