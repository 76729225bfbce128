package config

import (
	"fmt"
	"strings"
	"time"

	"holder-map/internal/domain"
	"holder-map/internal/features/holders"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "HOLDERMAP"

type Config struct {
	Explorer    ExplorerConfig    `mapstructure:"explorer"`
	DexScreener DexScreenerConfig `mapstructure:"dexscreener"`
	Classify    ClassifyConfig    `mapstructure:"classify"`
	Vesting     VestingConfig     `mapstructure:"vesting"`
	Telegram    TelegramConfig    `mapstructure:"telegram"`
	App         AppConfig         `mapstructure:"app"`
	Log         LogConfig         `mapstructure:"log"`
}

type ExplorerConfig struct {
	BaseURL         string  `mapstructure:"base_url"`
	APIKey          string  `mapstructure:"api_key"`
	ChainID         int64   `mapstructure:"chain_id"`
	RequestTimeout  int     `mapstructure:"request_timeout"` // seconds
	MaxRetries      int     `mapstructure:"max_retries"`
	RateLimit       float64 `mapstructure:"rate_limit"` // requests per second
	PageSize        int     `mapstructure:"page_size"`
	MaxPages        int     `mapstructure:"max_pages"`
	MaxResponseSize int64   `mapstructure:"max_response_size"`
}

type DexScreenerConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Chain   string `mapstructure:"chain"`
}

// ClassifyConfig mirrors holders.Config in file form.
type ClassifyConfig struct {
	ProxyMinRecipients   int           `mapstructure:"proxy_min_recipients"`
	ProxyOutflowSharePct int64         `mapstructure:"proxy_outflow_share_pct"`
	VerifyTopN           int           `mapstructure:"verify_top_n"`
	VerifyConcurrency    int           `mapstructure:"verify_concurrency"`
	VerifyRetries        int           `mapstructure:"verify_retries"`
	VerifyBackoff        time.Duration `mapstructure:"verify_backoff"`
	FirstBuyersLimit     int           `mapstructure:"first_buyers_limit"`
	MaxHopDepth          int           `mapstructure:"max_hop_depth"`
	EarlyWindow          time.Duration `mapstructure:"early_window"`
	SnipeMinBps          int64         `mapstructure:"snipe_min_bps"`
	SnipeTopK            int           `mapstructure:"snipe_top_k"`
	FundingSample        int           `mapstructure:"funding_sample"`
	FundingLookback      time.Duration `mapstructure:"funding_lookback"`
	FundingGrace         time.Duration `mapstructure:"funding_grace"`
	FundingConcurrency   int           `mapstructure:"funding_concurrency"`
	InsiderFunderMin     int           `mapstructure:"insider_funder_min"`
	RenderTopN           int           `mapstructure:"render_top_n"`
	TopListN             int           `mapstructure:"top_list_n"`

	KnownSystemAddresses []string `mapstructure:"known_system_addresses"`
	AlwaysExclude        []string `mapstructure:"always_exclude"`
	BotAddresses         []string `mapstructure:"bot_addresses"`
	ExtraPools           []string `mapstructure:"extra_pools"`
}

type VestingConfig struct {
	File string `mapstructure:"file"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

type AppConfig struct {
	DataDir string `mapstructure:"data_dir"`
	OutDir  string `mapstructure:"out_dir"`
}

type LogConfig struct {
	Dir     string `mapstructure:"dir"`
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

// LoadConfig layers, lowest first: defaults, config.yaml (or configFile),
// .env, environment, then any flags set on flags.
func LoadConfig(configFile string, flags *pflag.FlagSet) (*Config, error) {
	godotenv.Load(".env")

	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.ReadInConfig() // optional
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setupEnvAliases(v)

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	// Lists from .env or the environment arrive as one comma-separated string.
	cfg.Classify.KnownSystemAddresses = stringList(v.Get("classify.known_system_addresses"))
	cfg.Classify.AlwaysExclude = stringList(v.Get("classify.always_exclude"))
	cfg.Classify.BotAddresses = stringList(v.Get("classify.bot_addresses"))
	cfg.Classify.ExtraPools = stringList(v.Get("classify.extra_pools"))

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func stringList(raw interface{}) []string {
	var items []string
	switch val := raw.(type) {
	case string:
		items = strings.Split(val, ",")
	case []string:
		items = val
	case []interface{}:
		for _, item := range val {
			if s, ok := item.(string); ok {
				items = append(items, s)
			}
		}
	}
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func setupEnvAliases(v *viper.Viper) {
	v.BindEnv("explorer.api_key", EnvPrefix+"_EXPLORER_API_KEY", "ETHERSCAN_API_KEY", "EXPLORER_API_KEY")
	v.BindEnv("explorer.base_url", EnvPrefix+"_EXPLORER_BASE_URL", "EXPLORER_BASE_URL")
	v.BindEnv("explorer.chain_id", EnvPrefix+"_EXPLORER_CHAIN_ID", "CHAIN_ID")
	v.BindEnv("dexscreener.chain", EnvPrefix+"_DEXSCREENER_CHAIN", "DEXSCREENER_CHAIN")
	v.BindEnv("telegram.bot_token", EnvPrefix+"_TELEGRAM_BOT_TOKEN", "TELEGRAM_BOT_TOKEN")
	v.BindEnv("telegram.chat_id", EnvPrefix+"_TELEGRAM_CHAT_ID", "TELEGRAM_CHAT_ID")
	v.BindEnv("vesting.file", EnvPrefix+"_VESTING_FILE", "VESTING_FILE")
	v.BindEnv("log.level", EnvPrefix+"_LOG_LEVEL", "LOG_LEVEL")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("explorer.base_url", "https://api.etherscan.io/v2/api")
	v.SetDefault("explorer.api_key", "")
	v.SetDefault("explorer.chain_id", 2741) // Abstract mainnet
	v.SetDefault("explorer.request_timeout", 30)
	v.SetDefault("explorer.max_retries", 2)
	v.SetDefault("explorer.rate_limit", 4.0)
	v.SetDefault("explorer.page_size", 10000)
	v.SetDefault("explorer.max_pages", 200)
	v.SetDefault("explorer.max_response_size", 64*1024*1024)

	v.SetDefault("dexscreener.base_url", "https://api.dexscreener.com")
	v.SetDefault("dexscreener.chain", "abstract")

	d := holders.DefaultConfig()
	v.SetDefault("classify.proxy_min_recipients", d.ProxyMinRecipients)
	v.SetDefault("classify.proxy_outflow_share_pct", d.ProxyOutflowSharePct)
	v.SetDefault("classify.verify_top_n", d.VerifyTopN)
	v.SetDefault("classify.verify_concurrency", d.VerifyConcurrency)
	v.SetDefault("classify.verify_retries", d.VerifyRetries)
	v.SetDefault("classify.verify_backoff", d.VerifyBackoff)
	v.SetDefault("classify.first_buyers_limit", d.FirstBuyersLimit)
	v.SetDefault("classify.max_hop_depth", d.MaxHopDepth)
	v.SetDefault("classify.early_window", d.EarlyWindow)
	v.SetDefault("classify.snipe_min_bps", d.SnipeMinBps)
	v.SetDefault("classify.snipe_top_k", d.SnipeTopK)
	v.SetDefault("classify.funding_sample", d.FundingSample)
	v.SetDefault("classify.funding_lookback", d.FundingLookback)
	v.SetDefault("classify.funding_grace", d.FundingGrace)
	v.SetDefault("classify.funding_concurrency", d.FundingConcurrency)
	v.SetDefault("classify.insider_funder_min", d.InsiderFunderMin)
	v.SetDefault("classify.render_top_n", d.RenderTopN)
	v.SetDefault("classify.top_list_n", d.TopListN)
	v.SetDefault("classify.known_system_addresses", []string{holders.DefaultBotAddress, holders.DefaultRouterAddress})
	v.SetDefault("classify.always_exclude", []string{})
	v.SetDefault("classify.bot_addresses", []string{holders.DefaultBotAddress})
	v.SetDefault("classify.extra_pools", []string{})

	v.SetDefault("vesting.file", "data_out/vesting.json")

	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")

	v.SetDefault("app.data_dir", "data_in")
	v.SetDefault("app.out_dir", "data_out")

	v.SetDefault("log.dir", "logs")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", true)
}

// flagKeys maps CLI flag names to config keys.
var flagKeys = map[string]string{
	"api-key":      "explorer.api_key",
	"chain-id":     "explorer.chain_id",
	"explorer-url": "explorer.base_url",
	"dex-chain":    "dexscreener.chain",
	"vesting-file": "vesting.file",
	"out-dir":      "app.out_dir",
	"log-level":    "log.level",
	"log-dir":      "log.dir",
	"chat-id":      "telegram.chat_id",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

func validateConfig(cfg *Config) error {
	c := cfg.Classify
	positive := map[string]int64{
		"classify.proxy_min_recipients": int64(c.ProxyMinRecipients),
		"classify.verify_concurrency":   int64(c.VerifyConcurrency),
		"classify.first_buyers_limit":   int64(c.FirstBuyersLimit),
		"classify.max_hop_depth":        int64(c.MaxHopDepth),
		"classify.early_window":         int64(c.EarlyWindow),
		"classify.snipe_min_bps":        c.SnipeMinBps,
		"classify.funding_lookback":     int64(c.FundingLookback),
		"classify.funding_concurrency":  int64(c.FundingConcurrency),
		"classify.insider_funder_min":   int64(c.InsiderFunderMin),
	}
	for key, val := range positive {
		if val <= 0 {
			return fmt.Errorf("%s must be positive, got %d", key, val)
		}
	}
	if c.ProxyOutflowSharePct <= 0 || c.ProxyOutflowSharePct > 100 {
		return fmt.Errorf("classify.proxy_outflow_share_pct must be within (0,100], got %d", c.ProxyOutflowSharePct)
	}
	if c.VerifyTopN < 0 || c.VerifyRetries < 0 || c.SnipeTopK < 0 || c.FundingSample < 0 || c.FundingGrace < 0 {
		return fmt.Errorf("classify counts must not be negative")
	}
	if cfg.Explorer.ChainID <= 0 {
		return fmt.Errorf("explorer.chain_id must be positive")
	}
	return nil
}

// RequireExplorer checks what a live run against the explorer needs.
func (c *Config) RequireExplorer() error {
	if strings.TrimSpace(c.Explorer.APIKey) == "" {
		return fmt.Errorf("explorer api key is required: set explorer.api_key or ETHERSCAN_API_KEY")
	}
	return nil
}

// RequireTelegram checks what report delivery needs.
func (c *Config) RequireTelegram() error {
	if c.Telegram.BotToken == "" || c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id are required for notifications")
	}
	return nil
}

// Holders maps the classify section onto engine thresholds. vesting is the
// set already resolved for the token under analysis.
func (c *Config) Holders(vesting domain.AddressSet) holders.Config {
	k := c.Classify
	if vesting == nil {
		vesting = domain.AddressSet{}
	}
	return holders.Config{
		ProxyMinRecipients:   k.ProxyMinRecipients,
		ProxyOutflowSharePct: k.ProxyOutflowSharePct,
		VerifyTopN:           k.VerifyTopN,
		VerifyConcurrency:    k.VerifyConcurrency,
		VerifyRetries:        k.VerifyRetries,
		VerifyBackoff:        k.VerifyBackoff,
		FirstBuyersLimit:     k.FirstBuyersLimit,
		MaxHopDepth:          k.MaxHopDepth,
		EarlyWindow:          k.EarlyWindow,
		SnipeMinBps:          k.SnipeMinBps,
		SnipeTopK:            k.SnipeTopK,
		FundingSample:        k.FundingSample,
		FundingLookback:      k.FundingLookback,
		FundingGrace:         k.FundingGrace,
		FundingConcurrency:   k.FundingConcurrency,
		InsiderFunderMin:     k.InsiderFunderMin,
		RenderTopN:           k.RenderTopN,
		TopListN:             k.TopListN,
		KnownSystem:          domain.ParseAddressSet(k.KnownSystemAddresses),
		AlwaysExclude:        domain.ParseAddressSet(k.AlwaysExclude),
		BotAddresses:         domain.ParseAddressSet(k.BotAddresses),
		Vesting:              vesting,
		ExtraPools:           domain.ParseAddressSet(k.ExtraPools),
	}
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Explorer.RequestTimeout) * time.Second
}
