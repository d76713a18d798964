package notion

import (
	"context"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"

	"github.com/poubelles-propres/zones-cli/internal/model"
)

// Property names on the expansion team's zone board.
const (
	propZone        = "Zone"
	propRank        = "Rang"
	propScoreTotal  = "Score total"
	propScoreHouse  = "Score logement"
	propScoreIncome = "Score revenus"
	propScoreMarket = "Score marché"
	propCommunes    = "Communes"
	propMenages     = "Ménages"
	propClients     = "Clients potentiels"
	propRegion      = "Région"
	propDept        = "Département"
)

// PushResult counts what a push did to the board.
type PushResult struct {
	Created int
	Updated int
}

// PushZones writes the ranked zones into a Notion database. Zones already
// on the board (matched by title) are updated in place, so re-pushing
// after a new run refreshes scores instead of duplicating rows.
func PushZones(ctx context.Context, c Client, dbID string, zones []model.ScoredZone) (*PushResult, error) {
	existing, err := zonePagesByTitle(ctx, c, dbID)
	if err != nil {
		return nil, err
	}

	res := &PushResult{}
	for _, z := range zones {
		if ctx.Err() != nil {
			return res, eris.Wrap(ctx.Err(), "notion: push zones cancelled")
		}

		props := zoneProperties(z)
		if pageID, ok := existing[z.NomCommune]; ok {
			if _, err := c.UpdatePage(ctx, pageID, &notionapi.PageUpdateRequest{Properties: props}); err != nil {
				return res, eris.Wrapf(err, "notion: update zone %d", z.ZoneID)
			}
			res.Updated++
			continue
		}

		req := &notionapi.PageCreateRequest{
			Parent: notionapi.Parent{
				Type:       notionapi.ParentTypeDatabaseID,
				DatabaseID: notionapi.DatabaseID(dbID),
			},
			Properties: props,
		}
		if _, err := c.CreatePage(ctx, req); err != nil {
			return res, eris.Wrapf(err, "notion: create zone %d", z.ZoneID)
		}
		res.Created++
	}
	return res, nil
}

// zoneProperties maps a scored zone onto the board's columns: the sample
// name as title, scores and counts as numbers, region and department as
// selects.
func zoneProperties(z model.ScoredZone) notionapi.Properties {
	return notionapi.Properties{
		propZone: notionapi.TitleProperty{
			Type: notionapi.PropertyTypeTitle,
			Title: []notionapi.RichText{
				{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: z.NomCommune}},
			},
		},
		propRank:        numberProperty(float64(z.Rank)),
		propScoreTotal:  numberProperty(z.ScoreTotal),
		propScoreHouse:  numberProperty(z.ScoreHousing),
		propScoreIncome: numberProperty(z.ScoreIncome),
		propScoreMarket: numberProperty(z.ScoreMarketSize),
		propCommunes:    numberProperty(float64(z.NbCommunes)),
		propMenages:     numberProperty(z.NbMenages),
		propClients:     numberProperty(z.PotentialClients),
		propRegion:      selectProperty(z.Region),
		propDept:        selectProperty(z.CodeDepartement),
	}
}

func numberProperty(v float64) notionapi.NumberProperty {
	return notionapi.NumberProperty{Type: notionapi.PropertyTypeNumber, Number: v}
}

func selectProperty(name string) notionapi.SelectProperty {
	return notionapi.SelectProperty{
		Type:   notionapi.PropertyTypeSelect,
		Select: notionapi.Option{Name: name},
	}
}

// zonePagesByTitle maps existing board titles to page IDs.
func zonePagesByTitle(ctx context.Context, c Client, dbID string) (map[string]string, error) {
	pages, err := queryAll(ctx, c, dbID)
	if err != nil {
		return nil, err
	}
	byTitle := make(map[string]string, len(pages))
	for _, p := range pages {
		if title := pageTitle(p); title != "" {
			byTitle[title] = string(p.ID)
		}
	}
	return byTitle, nil
}

// queryAll walks the database's pagination. Zone boards stay in the low
// hundreds of rows, one request per 100.
func queryAll(ctx context.Context, c Client, dbID string) ([]notionapi.Page, error) {
	var all []notionapi.Page
	req := &notionapi.DatabaseQueryRequest{}
	for {
		resp, err := c.QueryDatabase(ctx, dbID, req)
		if err != nil {
			return nil, eris.Wrap(err, "notion: query zones database")
		}
		all = append(all, resp.Results...)
		if !resp.HasMore {
			return all, nil
		}
		req = &notionapi.DatabaseQueryRequest{StartCursor: resp.NextCursor}
	}
}

func pageTitle(page notionapi.Page) string {
	prop, ok := page.Properties[propZone]
	if !ok {
		return ""
	}
	tp, ok := prop.(*notionapi.TitleProperty)
	if !ok {
		return ""
	}
	var title strings.Builder
	for _, rt := range tp.Title {
		title.WriteString(rt.PlainText)
	}
	return strings.TrimSpace(title.String())
}
