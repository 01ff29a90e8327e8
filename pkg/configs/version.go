package configs

// AppVersion 应用版本号，构建时可通过 -ldflags "-X" 覆盖.
var AppVersion = "0.1.0"

// AppName 应用名称，用作默认的服务名、日志文件名与事件生产者标识.
const AppName = "photovault"
