package config

import "time"

// Texts of the perioperative assistant
const (
	DefaultSystemPrompt  = "你是一个专业的围术期管理AI助手，专门解答患者在术前、术中、术后的常见问题，请用简单清晰的语言帮助患者。"
	DefaultFallback      = "AI 暂时无法回答，请联系医生。"
	DefaultLocalFallback = "网络异常，请稍后重试或联系医生。"
	DefaultModel         = "ft:gpt-4o-2024-08-06:personal:liver:BjRU8n0t"
)

// DefaultQuestions are the canned questions offered to patients
var DefaultQuestions = []string{
	"术前饮食注意事项有哪些？",
	"术后多久可以下床活动？",
	"麻醉前要做哪些准备？",
	"术后多久可以正常进食？",
	"复查需要注意什么？",
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           3001,
			AllowedOrigins: []string{"*"},
		},
		Upstream: UpstreamConfig{
			Client:      ClientHTTP,
			BaseURL:     "https://api.openai.com/v1",
			Model:       DefaultModel,
			APIKeyEnv:   "OPENAI_API_KEY",
			Temperature: 0.5,
			Timeout:     30 * time.Second,
		},
		Prompts: PromptsConfig{
			System:        DefaultSystemPrompt,
			Fallback:      DefaultFallback,
			LocalFallback: DefaultLocalFallback,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Web: WebConfig{
			Port:      5173,
			RelayURL:  "http://localhost:3001",
			Title:     "围术期管理 AI",
			Questions: append([]string(nil), DefaultQuestions...),
		},
	}
}
