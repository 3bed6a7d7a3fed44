// File: api/schemas/entities.go
package schemas

import (
	"time"

	"github.com/google/uuid"
)

// SignalType classifies market-intelligence entities by the kind of signal
// they were extracted from.
type SignalType string

const (
	SignalMediaTrends        SignalType = "media_trends"
	SignalSearchTrends       SignalType = "search_trends"
	SignalFashionEvents      SignalType = "fashion_events"
	SignalCommercialTrends   SignalType = "commercial_trends"
	SignalSearchDemand       SignalType = "search_demand"
	SignalContextualTriggers SignalType = "contextual_triggers"
)

// MediaTrendItem is one trend reported by a fashion-media page.
type MediaTrendItem struct {
	Title              string   `json:"title"`
	Description        string   `json:"description,omitempty"`
	Keywords           []string `json:"keywords,omitempty"`
	SourceURL          string   `json:"source_url,omitempty"`
	SourcePlatform     string   `json:"source_platform,omitempty"`
	RiskImpact         float64  `json:"risk_impact,omitempty"`
	Confidence         float64  `json:"confidence,omitempty"`
	AffectedCategories []string `json:"affected_categories,omitempty"`
}

// SearchTrendItem is one keyword trend from a search-trends source.
type SearchTrendItem struct {
	Keyword                    string   `json:"keyword"`
	TrendScore                 float64  `json:"trend_score,omitempty"`
	TrendChangePct             float64  `json:"trend_change_pct,omitempty"`
	Description                string   `json:"description,omitempty"`
	SourceURL                  string   `json:"source_url,omitempty"`
	RiskDates                  []string `json:"risk_dates,omitempty"`
	AffectedCategories         []string `json:"affected_categories,omitempty"`
	EstimatedDemandIncreasePct float64  `json:"estimated_demand_increase_pct,omitempty"`
}

// FashionEventItem is one upcoming or ongoing fashion event.
type FashionEventItem struct {
	Title                      string   `json:"title"`
	Description                string   `json:"description,omitempty"`
	EventDate                  string   `json:"event_date,omitempty"`
	EventEndDate               string   `json:"event_end_date,omitempty"`
	Location                   string   `json:"location,omitempty"`
	EventStatus                string   `json:"event_status,omitempty"`
	Keywords                   []string `json:"keywords,omitempty"`
	SourceURL                  string   `json:"source_url,omitempty"`
	RiskImpact                 float64  `json:"risk_impact,omitempty"`
	Confidence                 float64  `json:"confidence,omitempty"`
	AffectedCategories         []string `json:"affected_categories,omitempty"`
	EstimatedDemandIncreasePct float64  `json:"estimated_demand_increase_pct,omitempty"`
}

// CommercialTrendItem is one garment-level commercial trend.
type CommercialTrendItem struct {
	GarmentType       string   `json:"garment_type"`
	Attributes        []string `json:"attributes,omitempty"`
	StyleVibe         string   `json:"style_vibe,omitempty"`
	SourceURL         string   `json:"source_url,omitempty"`
	UrgencyLevel      float64  `json:"urgency_level,omitempty"`
	ZaraCategoryMatch string   `json:"zara_category_match,omitempty"`
}

// SearchInsightItem is one rising search-demand insight.
type SearchInsightItem struct {
	Query           string   `json:"query"`
	GrowthStatus    string   `json:"growth_status,omitempty"`
	ImpliedProduct  string   `json:"implied_product,omitempty"`
	SuggestedAction string   `json:"suggested_action,omitempty"`
	RelatedKeywords []string `json:"related_keywords,omitempty"`
}

// ContextTriggerItem is one external context trigger (weather, local event).
type ContextTriggerItem struct {
	TriggerType           string   `json:"trigger_type"`
	Detail                string   `json:"detail,omitempty"`
	DateRange             string   `json:"date_range,omitempty"`
	RecommendedStockFocus []string `json:"recommended_stock_focus,omitempty"`
	VisualMerchandisingTip string  `json:"visual_merchandising_tip,omitempty"`
}

// ExtractionPayload is the structured document the extraction LLM emits for a
// page. Exactly one of the slices is expected to be populated, keyed by the
// kind of page being extracted.
type ExtractionPayload struct {
	Trends            []MediaTrendItem      `json:"trends,omitempty"`
	SearchTrends      []SearchTrendItem     `json:"search_trends,omitempty"`
	Events            []FashionEventItem    `json:"events,omitempty"`
	CommercialTrends  []CommercialTrendItem `json:"commercial_trends,omitempty"`
	SearchInsights    []SearchInsightItem   `json:"search_insights,omitempty"`
	ContextTriggers   []ContextTriggerItem  `json:"context_triggers,omitempty"`
}

// MarketEntity is the normalized record every extracted item is converted to
// before being handed to downstream consumers.
type MarketEntity struct {
	ID               string                 `json:"id"`
	SignalType       SignalType             `json:"signal_type"`
	SourceURL        string                 `json:"source_url"`
	SourcePlatform   string                 `json:"source_platform,omitempty"`
	SourceMethod     string                 `json:"source_method"`
	Title            string                 `json:"title,omitempty"`
	Description      string                 `json:"description,omitempty"`
	Keywords         []string               `json:"keywords,omitempty"`
	Location         string                 `json:"location,omitempty"`
	EventDate        string                 `json:"event_date,omitempty"`
	EventEndDate     string                 `json:"event_end_date,omitempty"`
	EventStatus      string                 `json:"event_status,omitempty"`
	RiskDates        []string               `json:"risk_dates,omitempty"`
	TrendScore       float64                `json:"trend_score,omitempty"`
	TrendChangePct   float64                `json:"trend_change_pct,omitempty"`
	StructuredOutput map[string]interface{} `json:"llm_structured_output,omitempty"`
	FoundAt          time.Time              `json:"found_at"`
	CreatedAt        time.Time              `json:"created_at"`
}

// NewMarketEntity builds the base entity shared by every signal type.
func NewMarketEntity(signal SignalType, sourceURL string) MarketEntity {
	now := time.Now().UTC()
	return MarketEntity{
		ID:           uuid.NewString(),
		SignalType:   signal,
		SourceURL:    sourceURL,
		SourceMethod: "ariadne",
		EventStatus:  "active",
		FoundAt:      now,
		CreatedAt:    now,
	}
}
