package config

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"gopkg.in/gcfg.v1"
)

type (
	Config struct {
		SUPPLIER struct {
			URL      string
			Key      string
			PageSize int
		}
		WOOCOMMERCE struct {
			URL    string
			Key    string
			Secret string
			RPS    int
		}
		TRANSLATE struct {
			Driver     string // google, deepl, llm
			Key        string
			TargetLang string
			Model      string
			Timeout    int // секунды, для llm ставим больше
		}
		PRICE struct {
			CurrencyFrom string
			CurrencyTo   string
			ExchangeRate float64 // 0 = брать курс из API поставщика
			Markup       float64 // процент наценки
			Rounding     string  // none, ceil, 99, nearest5, nearest10
		}
		SYNC struct {
			Timeout             int // секунды паузы цикла службы в простое
			PageSize            int
			TestLimit           int // 0 = без ограничения
			NameSource          string
			DescriptionSource   string
			ShortDescSource     string
			PriceSource         string // rrp, net, none
			SyncImages          int
			SyncCategories      int
			SyncAttributes      int
			SyncStock           int
			ProtectName         int
			ProtectDescription  int
			ProtectShortDesc    int
			ProtectPrice        int
			ProtectImages       int
			ProtectCategories   int
			NamePattern         string
			DescriptionPattern  string
			TelegramReport      int
		}
		DBSQLITE struct {
			DB string
		}
		SERVICE struct {
			Port int
		}
		TELEGRAM struct {
			BotToken string
			ChatID   int64
			Debug    int
		}
		LOG struct {
			Debug int
		}
	}
)

var cfg Config
var once sync.Once

func GetConfig() *Config {
	once.Do(func() {
		err := os.MkdirAll("logs", 0770)
		if err != nil {
			fmt.Println(err)
		}

		file, err := os.OpenFile("logs/config.log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0640)
		if err != nil {
			fmt.Println(err)
		}

		multiWriter := io.MultiWriter(file, os.Stdout)

		logger := log.New(multiWriter, "MAIN ", log.Ldate|log.Ltime|log.Lshortfile)

		logger.Print("Config:>Read application configurations")

		err = gcfg.ReadFileInto(&cfg, "./config/config.ini")
		if err != nil {
			logger.Fatalf("Config:>Failed to parse gcfg data: %s", err)
		} else {
			logger.Print("Config:>Config is read")
		}

		if err := cfg.Validate(); err != nil {
			logger.Fatalf("Config:>Invalid config: %s", err)
		}
	})

	return &cfg
}

// Validate - проверка обязательных параметров, падаем сразу при старте, а не в середине синхронизации
func (c *Config) Validate() error {
	if c.SUPPLIER.URL == "" {
		return fmt.Errorf("SUPPLIER.URL не задан")
	}
	if c.SUPPLIER.Key == "" {
		return fmt.Errorf("SUPPLIER.Key не задан")
	}
	if c.WOOCOMMERCE.URL == "" || c.WOOCOMMERCE.Key == "" || c.WOOCOMMERCE.Secret == "" {
		return fmt.Errorf("WOOCOMMERCE.URL/Key/Secret не заданы")
	}
	if c.TRANSLATE.TargetLang == "" {
		return fmt.Errorf("TRANSLATE.TargetLang не задан")
	}
	switch c.TRANSLATE.Driver {
	case "google", "deepl", "llm":
	default:
		return fmt.Errorf("TRANSLATE.Driver неизвестный: %s", c.TRANSLATE.Driver)
	}
	switch c.PRICE.Rounding {
	case "", "none", "ceil", "99", "nearest5", "nearest10":
	default:
		return fmt.Errorf("PRICE.Rounding неизвестный: %s", c.PRICE.Rounding)
	}
	if c.SUPPLIER.PageSize <= 0 {
		c.SUPPLIER.PageSize = 100
	}
	if c.SYNC.PageSize <= 0 {
		c.SYNC.PageSize = c.SUPPLIER.PageSize
	}
	if c.WOOCOMMERCE.RPS <= 0 {
		c.WOOCOMMERCE.RPS = 5
	}
	if c.DBSQLITE.DB == "" {
		c.DBSQLITE.DB = "db.db"
	}
	return nil
}
