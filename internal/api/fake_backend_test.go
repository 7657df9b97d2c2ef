package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"dismoment/internal/backend"
)

// fakeBackend is an in-memory stand-in for the hosted backend.
type fakeBackend struct {
	mu    sync.Mutex
	calls []string

	seq   int
	docs  map[string]map[string]map[string]any // collection -> id -> fields
	files map[string]string                   // file id -> name

	accounts map[string]*backend.Account // email -> account

	createAccountErr error
	sessionErr       error
	createDocErr     error
	createFileErr    error
	deleteFileErr    error
	updateErr        map[string]error // document id -> error

	// Called while a request is in flight, e.g. to cancel its context.
	onCreateDocument func()
	onUpdate         func(documentID string)
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		docs:      map[string]map[string]map[string]any{},
		files:     map[string]string{},
		accounts:  map[string]*backend.Account{},
		updateErr: map[string]error{},
	}
}

func (f *fakeBackend) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) put(collection, id string, fields map[string]any) {
	if f.docs[collection] == nil {
		f.docs[collection] = map[string]map[string]any{}
	}
	f.seq++
	fields["$id"] = id
	fields["$collectionId"] = collection
	if _, ok := fields["$createdAt"]; !ok {
		fields["$createdAt"] = time.Date(2024, 1, 1, 0, 0, f.seq, 0, time.UTC).Format(time.RFC3339Nano)
	}
	f.docs[collection][id] = fields
}

func toDocument(fields map[string]any) backend.Document {
	raw, _ := json.Marshal(fields)
	doc := backend.Document{
		ID:           fmt.Sprint(fields["$id"]),
		CollectionID: fmt.Sprint(fields["$collectionId"]),
		Raw:          raw,
	}
	doc.CreatedAt, _ = time.Parse(time.RFC3339Nano, fmt.Sprint(fields["$createdAt"]))
	return doc
}

func notFound() error {
	return &backend.Error{Status: http.StatusNotFound, Message: "Document not found"}
}

func (f *fakeBackend) CreateAccount(ctx context.Context, id, email, password, name string) (*backend.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateAccount")
	if f.createAccountErr != nil {
		return nil, f.createAccountErr
	}
	acc := &backend.Account{ID: id, Name: name, Email: email}
	f.accounts[email] = acc
	return acc, nil
}

func (f *fakeBackend) CreateEmailSession(ctx context.Context, email, password string) (*backend.AccountSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateEmailSession:" + email)
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	acc, ok := f.accounts[email]
	if !ok {
		return nil, &backend.Error{Status: http.StatusUnauthorized, Type: "user_invalid_credentials", Message: "Invalid credentials"}
	}
	return &backend.AccountSession{ID: "sess-" + acc.ID, UserID: acc.ID, Secret: "secret-" + acc.ID}, nil
}

func (f *fakeBackend) GetAccount(ctx context.Context) (*backend.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetAccount")
	secret, _ := backend.SessionFrom(ctx)
	for _, acc := range f.accounts {
		if "secret-"+acc.ID == secret {
			return acc, nil
		}
	}
	return nil, &backend.Error{Status: http.StatusUnauthorized, Message: "missing scope"}
}

func (f *fakeBackend) DeleteSession(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteSession:" + sessionID)
	return nil
}

func (f *fakeBackend) CreateDocument(ctx context.Context, databaseID, collectionID, documentID string, data any) (backend.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateDocument:" + collectionID)
	if f.onCreateDocument != nil {
		f.onCreateDocument()
	}
	if err := ctx.Err(); err != nil {
		return backend.Document{}, err
	}
	if f.createDocErr != nil {
		return backend.Document{}, f.createDocErr
	}
	fields := map[string]any{}
	raw, _ := json.Marshal(data)
	_ = json.Unmarshal(raw, &fields)
	f.put(collectionID, documentID, fields)
	return toDocument(fields), nil
}

func (f *fakeBackend) GetDocument(ctx context.Context, databaseID, collectionID, documentID string) (backend.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetDocument:" + collectionID + "/" + documentID)
	fields, ok := f.docs[collectionID][documentID]
	if !ok {
		return backend.Document{}, notFound()
	}
	return toDocument(fields), nil
}

func (f *fakeBackend) ListDocuments(ctx context.Context, databaseID, collectionID string, queries ...backend.Query) (*backend.DocumentList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListDocuments:" + collectionID)

	var rows []map[string]any
	for _, fields := range f.docs[collectionID] {
		rows = append(rows, fields)
	}
	sort.Slice(rows, func(i, j int) bool {
		return fmt.Sprint(rows[i]["$createdAt"]) < fmt.Sprint(rows[j]["$createdAt"])
	})

	limit := -1
	for _, q := range queries {
		switch q.Method {
		case "equal":
			rows = filter(rows, func(r map[string]any) bool { return fmt.Sprint(r[q.Attribute]) == fmt.Sprint(q.Values[0]) })
		case "search":
			rows = filter(rows, func(r map[string]any) bool {
				return strings.Contains(strings.ToLower(fmt.Sprint(r[q.Attribute])), strings.ToLower(fmt.Sprint(q.Values[0])))
			})
		case "isNotNull":
			rows = filter(rows, func(r map[string]any) bool { v, ok := r[q.Attribute]; return ok && v != nil && v != "" })
		case "orderDesc":
			for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
				rows[i], rows[j] = rows[j], rows[i]
			}
		case "limit":
			limit = q.Values[0].(int)
		}
	}
	if limit >= 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	list := &backend.DocumentList{Total: len(rows)}
	for _, r := range rows {
		list.Documents = append(list.Documents, toDocument(r))
	}
	return list, nil
}

func filter(rows []map[string]any, keep func(map[string]any) bool) []map[string]any {
	out := rows[:0:0]
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeBackend) UpdateDocument(ctx context.Context, databaseID, collectionID, documentID string, data any) (backend.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateDocument:" + collectionID + "/" + documentID)
	if f.onUpdate != nil {
		f.onUpdate(documentID)
	}
	if err := ctx.Err(); err != nil {
		return backend.Document{}, err
	}
	if err := f.updateErr[documentID]; err != nil {
		return backend.Document{}, err
	}
	fields, ok := f.docs[collectionID][documentID]
	if !ok {
		return backend.Document{}, notFound()
	}
	patch := map[string]any{}
	raw, _ := json.Marshal(data)
	_ = json.Unmarshal(raw, &patch)
	for k, v := range patch {
		fields[k] = v
	}
	return toDocument(fields), nil
}

func (f *fakeBackend) CreateFile(ctx context.Context, bucketID, fileID, name, contentType string, content io.Reader) (*backend.StoredFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateFile:" + fileID)
	if f.createFileErr != nil {
		return nil, f.createFileErr
	}
	data, _ := io.ReadAll(content)
	f.files[fileID] = name
	return &backend.StoredFile{ID: fileID, BucketID: bucketID, Name: name, MimeType: contentType, Size: int64(len(data))}, nil
}

func (f *fakeBackend) DeleteFile(ctx context.Context, bucketID, fileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteFile:" + fileID)
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.deleteFileErr != nil {
		return f.deleteFileErr
	}
	delete(f.files, fileID)
	return nil
}

func (f *fakeBackend) FilePreviewURL(bucketID, fileID string, opt backend.PreviewOptions) string {
	return "https://cdn.test/" + bucketID + "/" + fileID + "/preview"
}

func (f *fakeBackend) InitialsAvatarURL(name string) string {
	return "https://cdn.test/avatars/" + name
}
