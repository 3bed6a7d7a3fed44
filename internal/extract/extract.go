// File: internal/extract/extract.go
package extract

import (
	"fmt"
	"regexp"
	"strings"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/avelasco-eng/ariadne/api/schemas"
)

// A regex to robustly extract a JSON object from a markdown code block.
var jsonBlockRegex = regexp.MustCompile(fmt.Sprintf("(?s)%s(?:json)?\\s*(.*?)\\s*%s", "```", "```"))

// Parser turns raw extraction-LLM output into normalized market entities.
type Parser struct {
	logger *zap.Logger
}

func NewParser(logger *zap.Logger) *Parser {
	return &Parser{logger: logger.Named("extract")}
}

// ParsePayload decodes an extraction response, tolerating markdown fences and
// surrounding prose around the JSON document.
func (p *Parser) ParsePayload(response string) (*schemas.ExtractionPayload, error) {
	response = strings.TrimSpace(response)
	var jsonStringToParse string

	matches := jsonBlockRegex.FindStringSubmatch(response)
	if len(matches) > 1 {
		jsonStringToParse = strings.TrimSpace(matches[1])
	} else {
		firstBracket := strings.Index(response, "{")
		lastBracket := strings.LastIndex(response, "}")
		if firstBracket != -1 && lastBracket != -1 && lastBracket > firstBracket {
			jsonStringToParse = response[firstBracket : lastBracket+1]
		} else {
			jsonStringToParse = response
		}
	}

	if jsonStringToParse == "" {
		return nil, fmt.Errorf("could not find any JSON in the extraction response")
	}

	var payload schemas.ExtractionPayload
	if err := json.Unmarshal([]byte(jsonStringToParse), &payload); err != nil {
		p.logger.Warn("Failed to unmarshal extraction response",
			zap.String("extracted_json", jsonStringToParse),
			zap.Error(err))
		return nil, fmt.Errorf("failed to unmarshal extracted JSON: %w", err)
	}
	return &payload, nil
}

// Entities converts a decoded payload into flat market entities, stamping the
// page URL on every item that did not report its own source.
func (p *Parser) Entities(payload *schemas.ExtractionPayload, pageURL string) []schemas.MarketEntity {
	if payload == nil {
		return nil
	}
	var out []schemas.MarketEntity

	for _, item := range payload.Trends {
		if item.Title == "" {
			continue
		}
		e := schemas.NewMarketEntity(schemas.SignalMediaTrends, firstNonEmpty(item.SourceURL, pageURL))
		e.Title = item.Title
		e.Description = item.Description
		e.Keywords = item.Keywords
		e.SourcePlatform = item.SourcePlatform
		e.StructuredOutput = asMap(item)
		out = append(out, e)
	}

	for _, item := range payload.SearchTrends {
		if item.Keyword == "" {
			continue
		}
		e := schemas.NewMarketEntity(schemas.SignalSearchTrends, firstNonEmpty(item.SourceURL, pageURL))
		e.Title = item.Keyword
		e.Description = item.Description
		e.Keywords = []string{item.Keyword}
		e.TrendScore = item.TrendScore
		e.TrendChangePct = item.TrendChangePct
		e.RiskDates = item.RiskDates
		e.StructuredOutput = asMap(item)
		out = append(out, e)
	}

	for _, item := range payload.Events {
		if item.Title == "" {
			continue
		}
		e := schemas.NewMarketEntity(schemas.SignalFashionEvents, firstNonEmpty(item.SourceURL, pageURL))
		e.Title = item.Title
		e.Description = item.Description
		e.Keywords = item.Keywords
		e.Location = item.Location
		e.EventDate = item.EventDate
		e.EventEndDate = item.EventEndDate
		if item.EventStatus != "" {
			e.EventStatus = item.EventStatus
		}
		e.StructuredOutput = asMap(item)
		out = append(out, e)
	}

	for _, item := range payload.CommercialTrends {
		if item.GarmentType == "" {
			continue
		}
		e := schemas.NewMarketEntity(schemas.SignalCommercialTrends, firstNonEmpty(item.SourceURL, pageURL))
		e.Title = item.GarmentType
		e.Description = item.StyleVibe
		e.Keywords = item.Attributes
		e.StructuredOutput = asMap(item)
		out = append(out, e)
	}

	for _, item := range payload.SearchInsights {
		if item.Query == "" {
			continue
		}
		e := schemas.NewMarketEntity(schemas.SignalSearchDemand, pageURL)
		e.Title = item.Query
		e.Description = item.SuggestedAction
		e.Keywords = item.RelatedKeywords
		e.StructuredOutput = asMap(item)
		out = append(out, e)
	}

	for _, item := range payload.ContextTriggers {
		if item.TriggerType == "" {
			continue
		}
		e := schemas.NewMarketEntity(schemas.SignalContextualTriggers, pageURL)
		e.Title = item.TriggerType
		e.Description = item.Detail
		e.Keywords = item.RecommendedStockFocus
		e.StructuredOutput = asMap(item)
		out = append(out, e)
	}

	if len(out) > 0 {
		p.logger.Info("Extraction payload converted.",
			zap.String("page_url", pageURL),
			zap.Int("entities", len(out)))
	}
	return out
}

// FromHistory scans a finished run for extraction output and converts every
// decodable payload. Steps whose content does not parse are skipped, not
// fatal; a run with some malformed extractions still yields the good ones.
func (p *Parser) FromHistory(run *schemas.RunHistory) []schemas.MarketEntity {
	if run == nil {
		return nil
	}
	var out []schemas.MarketEntity
	for _, step := range run.Steps {
		for _, res := range step.Results {
			if res.ExtractedContent == "" || res.Error != "" {
				continue
			}
			payload, err := p.ParsePayload(res.ExtractedContent)
			if err != nil {
				p.logger.Debug("Skipping unparseable extraction result.",
					zap.Int("step", step.Step),
					zap.Error(err))
				continue
			}
			out = append(out, p.Entities(payload, step.State.URL)...)
		}
	}
	p.logger.Info("Run history processed for entities.",
		zap.String("run_id", run.RunID),
		zap.Int("entities", len(out)))
	return out
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// asMap round-trips an item through JSON so the full structured output is
// preserved on the entity even for fields the flat schema does not carry.
func asMap(item interface{}) map[string]interface{} {
	data, err := json.Marshal(item)
	if err != nil {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}
