// Command vigorctl 讀取與控制 Vigor 熱回收通風機，並提供指標輸出與裝置模擬
package main

import (
	"fmt"
	"os"
)

// 版本資訊 (由 ldflags 注入)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "錯誤: %v\n", err)
		os.Exit(1)
	}
}
