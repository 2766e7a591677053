package bootstrap

import (
	"github.com/spf13/viper"
)

type Config struct {
	ServerPort     string `mapstructure:"SERVER_PORT"`
	EvalURL        string `mapstructure:"EVAL_URL"`
	EvalDepth      int    `mapstructure:"EVAL_DEPTH"`
	ExploreDepth   int    `mapstructure:"EXPLORE_DEPTH"`
	RedisURL       string `mapstructure:"REDIS_URL"`
	MongoURI       string `mapstructure:"MONGO_URI"`
	BookDir        string `mapstructure:"BOOK_DIR"`
	BookCollection string `mapstructure:"BOOK_COLLECTION"`
	IsLocalCors    bool   `mapstructure:"LOCAL_CORS"`
}

func Setup(cfgPath string) (*Config, error) {
	viper.SetConfigFile(cfgPath)

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	var cfg Config

	err = viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	if cfg.EvalDepth == 0 {
		cfg.EvalDepth = 10
	}
	if cfg.ExploreDepth == 0 {
		cfg.ExploreDepth = 12
	}

	return &cfg, nil
}
