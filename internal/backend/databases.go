package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
)

// Document is a stored document; system attributes are lifted out, the rest stays raw.
type Document struct {
	ID           string
	CollectionID string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Raw          json.RawMessage
}

// Get reads a field of the document with a gjson path.
func (d Document) Get(path string) gjson.Result {
	return gjson.GetBytes(d.Raw, path)
}

// Decode unmarshals the raw document into v.
func (d Document) Decode(v any) error {
	return json.Unmarshal(d.Raw, v)
}

// DocumentList is one page of a listing.
type DocumentList struct {
	Total     int
	Documents []Document
}

func documentsPath(databaseID, collectionID string) string {
	return "/databases/" + url.PathEscape(databaseID) + "/collections/" + url.PathEscape(collectionID) + "/documents"
}

// CreateDocument stores data under the given document id.
func (c *Client) CreateDocument(ctx context.Context, databaseID, collectionID, documentID string, data any) (Document, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPost, documentsPath(databaseID, collectionID), map[string]any{
		"documentId": documentID,
		"data":       data,
	}, authKey)
	if err != nil {
		return Document{}, err
	}
	body, err := c.do(req)
	if err != nil {
		return Document{}, err
	}
	return parseDocument(body)
}

// GetDocument fetches one document by id.
func (c *Client) GetDocument(ctx context.Context, databaseID, collectionID, documentID string) (Document, error) {
	path := documentsPath(databaseID, collectionID) + "/" + url.PathEscape(documentID)
	req, err := c.newRequest(ctx, http.MethodGet, path, nil, nil, authKey)
	if err != nil {
		return Document{}, err
	}
	body, err := c.do(req)
	if err != nil {
		return Document{}, err
	}
	return parseDocument(body)
}

// ListDocuments runs a filtered listing.
func (c *Client) ListDocuments(ctx context.Context, databaseID, collectionID string, queries ...Query) (*DocumentList, error) {
	params, err := encodeQueries(queries)
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, http.MethodGet, documentsPath(databaseID, collectionID), params, nil, authKey)
	if err != nil {
		return nil, err
	}
	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	res := gjson.ParseBytes(body)
	list := &DocumentList{Total: int(res.Get("total").Int())}
	for _, item := range res.Get("documents").Array() {
		doc, err := parseDocument([]byte(item.Raw))
		if err != nil {
			return nil, err
		}
		list.Documents = append(list.Documents, doc)
	}
	return list, nil
}

// UpdateDocument patches the given fields of a document.
func (c *Client) UpdateDocument(ctx context.Context, databaseID, collectionID, documentID string, data any) (Document, error) {
	path := documentsPath(databaseID, collectionID) + "/" + url.PathEscape(documentID)
	req, err := c.newJSONRequest(ctx, http.MethodPatch, path, map[string]any{"data": data}, authKey)
	if err != nil {
		return Document{}, err
	}
	body, err := c.do(req)
	if err != nil {
		return Document{}, err
	}
	return parseDocument(body)
}

func parseDocument(raw []byte) (Document, error) {
	if !gjson.ValidBytes(raw) {
		return Document{}, fmt.Errorf("malformed document body")
	}
	res := gjson.ParseBytes(raw)
	doc := Document{
		ID:           res.Get("\\$id").String(),
		CollectionID: res.Get("\\$collectionId").String(),
		Raw:          json.RawMessage(raw),
	}
	doc.CreatedAt = ParseTime(res.Get("\\$createdAt").String())
	doc.UpdatedAt = ParseTime(res.Get("\\$updatedAt").String())
	return doc, nil
}

// ParseTime tolerates missing or malformed timestamps; zero means unknown.
func ParseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
