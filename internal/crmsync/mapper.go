package crmsync

import (
	"github.com/jomei/notionapi"

	"github.com/rpcosta/agency-ops/internal/store"
)

// LeadToNotionProperties converts a lead row to the CRM board's property
// schema: Lead ID (title), Name, Email, Company, Status and the triage
// fields when analysis has run.
func LeadToNotionProperties(lead *store.LeadRow) notionapi.Properties {
	props := notionapi.Properties{
		"Lead ID": notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: lead.LeadID,
					},
				},
			},
		},
		"Name": notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: lead.Name,
					},
				},
			},
		},
		"Email": notionapi.EmailProperty{
			Email: lead.Email,
		},
		"Status": notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: lead.Status,
			},
		},
	}

	if lead.Company != "" {
		props["Company"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: lead.Company,
					},
				},
			},
		}
	}

	if lead.Score.Valid {
		props["Score"] = notionapi.NumberProperty{
			Number: float64(lead.Score.Int64),
		}
	}

	if lead.Fit != "" {
		props["Fit"] = notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: lead.Fit,
			},
		}
	}

	if lead.AnalysisSummary != "" {
		props["Summary"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: lead.AnalysisSummary,
					},
				},
			},
		}
	}

	if !lead.CreatedTS.IsZero() {
		props["Received"] = notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: (*notionapi.Date)(&lead.CreatedTS),
			},
		}
	}

	return props
}

// extractLeadID reads the Lead ID title property from a Notion page.
// Returns empty string if not found.
func extractLeadID(page notionapi.Page) string {
	if prop, ok := page.Properties["Lead ID"]; ok {
		if title, ok := prop.(*notionapi.TitleProperty); ok {
			if len(title.Title) > 0 {
				return title.Title[0].PlainText
			}
		}
	}
	return ""
}
