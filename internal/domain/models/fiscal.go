package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FiscalArticle is one classified news article from the fiscal-policy dataset.
// Loaded from batch CSV exports, not from the auction pipeline.
type FiscalArticle struct {
	ArticleID       string    `json:"article_id"`
	Date            time.Time `json:"date"`
	IsFiscalArticle bool      `json:"is_fiscal_article"`
	HasTariff       bool      `json:"has_tariff"`
}

// FiscalPolicyIndex is one day of aggregated fiscal-policy sentiment scores.
// Exactly one row per date.
type FiscalPolicyIndex struct {
	IndexID int64     `json:"index_id"`
	Date    time.Time `json:"date"`

	TotalArticles           int `json:"total_articles"`
	FiscalArticles          int `json:"fiscal_articles"`
	TariffFiscalArticles    int `json:"tariff_fiscal_articles"`
	NonTariffFiscalArticles int `json:"non_tariff_fiscal_articles"`

	Rate          decimal.NullDecimal `json:"rate,omitempty"`
	TariffRate    decimal.NullDecimal `json:"tariff_rate,omitempty"`
	NonTariffRate decimal.NullDecimal `json:"non_tariff_rate,omitempty"`

	FiscalPolicyIndex decimal.NullDecimal `json:"fiscal_policy_index,omitempty"`
	TariffFiscalIndex decimal.NullDecimal `json:"tariff_fiscal_index,omitempty"`
	NonTariffIndex    decimal.NullDecimal `json:"non_tariff_fiscal_index,omitempty"`
}

// TopPhrase is one recurring phrase extracted from the article corpus,
// unique by phrase text.
type TopPhrase struct {
	PhraseID int64  `json:"phrase_id"`
	Phrase   string `json:"phrase"`
	Count    int    `json:"count"`
}
