// Package main 启动应用程序
package main

import (
	"os"

	"github.com/yeisme/photovault/pkg/cmd"
)

//	@title			PhotoVault API
//	@version		1.0
//	@description	PhotoVault 保存用户上传的图片，自动识别图片标签，并支持按标签搜索。

//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
