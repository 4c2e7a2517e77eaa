package extractor

import (
	"strconv"
	"strings"
	"time"

	"cardealworker/internal/ad"
	errs "cardealworker/pkg/errors"

	"github.com/PuerkitoBio/goquery"
)

const component = "extractor"

// Extract parses one ad detail page into a Record. It returns a typed
// error and never a partial record: required markup nodes missing is a
// StructureMismatch, an unreadable embedded payload is
// MalformedEmbeddedData, and a payload without the authoritative price
// is MissingPrice.
func Extract(html string) (*ad.Record, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, errs.New(errs.ErrorTypeStructureMismatch, component, "unreadable document", err)
	}

	title := doc.Find("h1#rbt-ad-title")
	if title.Length() == 0 {
		return nil, errs.NewStructureMismatch(component, "ad title not found")
	}

	price := doc.Find("span.rbt-prime-price")
	if price.Length() == 0 {
		return nil, errs.NewStructureMismatch(component, "prime price not found")
	}

	adID, err := extractAdID(doc)
	if err != nil {
		return nil, err
	}

	seller, err := extractSeller(doc)
	if err != nil {
		return nil, err
	}

	technical, err := extractTechnical(doc)
	if err != nil {
		return nil, err
	}

	dart, err := extractDart(html)
	if err != nil {
		return nil, err
	}
	if !dart.Ad.Price.Set {
		return nil, errs.NewMissingPrice(component, "dart payload has no ad price")
	}

	now := time.Now()
	record := &ad.Record{
		AdID: adID,
		Crawler: ad.Lifecycle{
			FirstSeen: now,
			LastSeen:  now,
			UpdatedAt: now,
		},
		Web: ad.WebData{
			Title:       strings.TrimSpace(title.First().Text()),
			Price:       strings.TrimSpace(price.First().Text()),
			Technical:   technical,
			Features:    extractFeatures(doc),
			Description: extractDescription(doc),
			Seller:      seller,
		},
		Dart: dart,
	}
	return record, nil
}

// extractAdID reads the numeric ad identifier from the parking block
// container attribute.
func extractAdID(doc *goquery.Document) (int64, error) {
	parking := doc.Find("div.parking-block")
	raw, exists := parking.First().Attr("data-parking")
	if !exists {
		return 0, errs.NewStructureMismatch(component, "parking block with ad id not found")
	}
	adID, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, errs.New(errs.ErrorTypeStructureMismatch, component, "ad id is not numeric", err)
	}
	return adID, nil
}

func extractSeller(doc *goquery.Document) (ad.Seller, error) {
	address := doc.Find("p#rbt-seller-address")
	if address.Length() == 0 {
		return ad.Seller{}, errs.NewStructureMismatch(component, "seller address not found")
	}

	seller := ad.Seller{
		// address lines are separate nodes; collapse them to one line
		Address: strings.Join(strings.Fields(address.First().Text()), " "),
	}

	if phone := doc.Find("span#rbt-seller-phone"); phone.Length() > 0 {
		seller.Phone = strings.TrimSpace(strings.TrimPrefix(phone.First().Text(), "Tel.: "))
	}
	return seller, nil
}

// extractTechnical reads the technical data box. Attribute rows carry
// the id convention rbt-<key>-l for the label node and rbt-<key>-v for
// the value node; only value nodes are kept. The box itself is
// required, individual rows are not.
func extractTechnical(doc *goquery.Document) (map[string]string, error) {
	box := doc.Find("div#rbt-td-box")
	if box.Length() == 0 {
		return nil, errs.NewStructureMismatch(component, "technical data box not found")
	}

	technical := make(map[string]string)
	box.Find("div.g-row").Each(func(_ int, row *goquery.Selection) {
		row.Children().Each(func(_ int, child *goquery.Selection) {
			id, exists := child.Attr("id")
			if !exists || !strings.HasSuffix(id, "-v") {
				return
			}
			key := strings.TrimSuffix(strings.TrimPrefix(id, "rbt-"), "-v")
			technical[key] = strings.TrimSpace(child.Text())
		})
	})
	return technical, nil
}

// extractFeatures reads the optional feature tag block. Absence is
// valid and yields nil, not an error.
func extractFeatures(doc *goquery.Document) []string {
	box := doc.Find("div#rbt-features div.g-row").First()
	if box.Length() == 0 {
		return nil
	}

	var features []string
	box.Children().Each(func(_ int, column *goquery.Selection) {
		if tag := strings.TrimSpace(column.Text()); tag != "" {
			features = append(features, tag)
		}
	})
	return features
}

// extractDescription reads the optional free-text description block.
func extractDescription(doc *goquery.Document) *ad.Description {
	box := doc.Find("div.cBox-body--vehicledescription div.description").First()
	if box.Length() == 0 {
		return nil
	}

	html, err := goquery.OuterHtml(box)
	if err != nil {
		html = ""
	}
	return &ad.Description{
		HTML: html,
		Text: strings.TrimSpace(box.Text()),
	}
}
