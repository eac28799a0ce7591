package order

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/sodrunberkicau/microservice-docker-alp/internal/orders/product"
	"github.com/sodrunberkicau/microservice-docker-alp/pkg/contracts"

	"github.com/shopspring/decimal"
)

// MaxProofSize caps the decoded payment-proof payload.
const MaxProofSize = 5 << 20

var proofExtByType = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Store is the order table. Only this service writes to it.
type Store interface {
	Insert(ctx context.Context, o *Order) (int64, error)
	Get(ctx context.Context, id int64) (*Order, error)
	List(ctx context.Context) ([]Order, error)
	SetProofPath(ctx context.Context, id int64, path string) (*Order, error)
}

// ProductReader is the separately owned product store, joined only at read
// time. There is no foreign key between the two.
type ProductReader interface {
	ByIDs(ctx context.Context, ids []int64) (map[int64]product.Info, error)
}

// EventPublisher is the durable queue side of the fan-out.
type EventPublisher interface {
	Publish(ctx context.Context, payload []byte) error
}

// LivePublisher is the ephemeral pub/sub side of the fan-out.
type LivePublisher interface {
	Publish(ctx context.Context, payload []byte) error
}

// BlobStore holds payment proofs.
type BlobStore interface {
	Put(ctx context.Context, bucket, key string, data []byte) error
	Get(ctx context.Context, bucket, key string) ([]byte, error)
}

type Service struct {
	store          Store
	products       ProductReader
	events         EventPublisher
	live           LivePublisher
	blobs          BlobStore
	bucket         string
	publishTimeout time.Duration
	logger         *slog.Logger
}

func NewService(store Store, products ProductReader, events EventPublisher, live LivePublisher, blobs BlobStore, bucket string, publishTimeout time.Duration, logger *slog.Logger) *Service {
	return &Service{
		store:          store,
		products:       products,
		events:         events,
		live:           live,
		blobs:          blobs,
		bucket:         bucket,
		publishTimeout: publishTimeout,
		logger:         logger,
	}
}

// Create validates the cart, commits the order row, and only then fans the
// OrderCreated event out. A publish failure is logged and swallowed: the
// committed sale wins over the notification every time.
func (s *Service) Create(ctx context.Context, userID int64, items []Item) (int64, error) {
	if len(items) == 0 {
		return 0, errValidation("no items in order")
	}

	total := decimal.Zero
	for _, it := range items {
		if it.Quantity <= 0 {
			return 0, errValidation("quantity must be positive")
		}
		if it.Price.IsNegative() {
			return 0, errValidation("price must not be negative")
		}
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	first := items[0]
	o := &Order{
		UserID:    userID,
		ProductID: first.ProductID,
		Quantity:  first.Quantity,
		Price:     first.Price,
		Total:     total,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}

	id, err := s.store.Insert(ctx, o)
	if err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}
	o.ID = id

	s.publishCreated(ctx, o)
	return id, nil
}

func (s *Service) publishCreated(ctx context.Context, o *Order) {
	evt := contracts.OrderCreated{
		OrderID:   o.ID,
		UserID:    o.UserID,
		ProductID: o.ProductID,
		Quantity:  o.Quantity,
		Price:     o.Price,
		Total:     o.Total,
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt,
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		s.logger.Error("marshal order event", "order_id", o.ID, "err", err)
		return
	}

	// The row is already committed; a caller disconnect must not abort the
	// publish, but the publish must not stall the request either.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()

	if err := s.events.Publish(pubCtx, payload); err != nil {
		s.logger.Error("publish order event", "order_id", o.ID, "err", err)
	} else {
		s.logger.Info("order published", "order_id", o.ID)
	}

	if err := s.live.Publish(pubCtx, payload); err != nil {
		s.logger.Error("publish live update", "order_id", o.ID, "err", err)
	}
}

// List returns every order joined with product name/description. Orders
// referencing an unknown product keep empty metadata.
func (s *Service) List(ctx context.Context) ([]Listing, error) {
	orders, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	seen := make(map[int64]bool, len(orders))
	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		if !seen[o.ProductID] {
			seen[o.ProductID] = true
			ids = append(ids, o.ProductID)
		}
	}

	infos, err := s.products.ByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	listings := make([]Listing, 0, len(orders))
	for _, o := range orders {
		info := infos[o.ProductID]
		listings = append(listings, Listing{
			ID:          o.ID,
			Name:        info.Name,
			ProductID:   o.ProductID,
			Description: info.Description,
			Quantity:    o.Quantity,
			Price:       o.Price,
			Path:        o.Path,
			Total:       o.Total,
		})
	}
	return listings, nil
}

// AttachProof validates and decodes the payload, uploads the blob, then
// links it to the order row. Blob first, pointer second: an orphaned blob
// is harmless, a pointer to a missing blob is not.
func (s *Service) AttachProof(ctx context.Context, orderID int64, encoded, fileName, fileType string) (*Order, error) {
	if encoded == "" || fileName == "" || fileType == "" {
		return nil, errValidation("missing proof payload, file name or file type")
	}

	ext, ok := proofExtByType[strings.ToLower(fileType)]
	if !ok {
		return nil, errValidation("unsupported file type %q", fileType)
	}
	if e := strings.ToLower(path.Ext(fileName)); e != "" {
		ext = e
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errValidation("proof is not valid base64")
	}
	if len(data) > MaxProofSize {
		return nil, errValidation("proof exceeds %d bytes", MaxProofSize)
	}

	if _, err := s.store.Get(ctx, orderID); err != nil {
		return nil, err
	}

	// Fresh key per upload attempt; earlier proofs are never overwritten
	// even though only the latest reference is kept on the row.
	key := fmt.Sprintf("order_%d_%d%s", orderID, time.Now().UnixMilli(), ext)
	if err := s.blobs.Put(ctx, s.bucket, key, data); err != nil {
		return nil, fmt.Errorf("upload proof: %w", err)
	}

	updated, err := s.store.SetProofPath(ctx, orderID, s.bucket+"/"+key)
	if err != nil {
		return nil, fmt.Errorf("link proof: %w", err)
	}
	return updated, nil
}

// Proof returns the stored proof bytes verbatim plus the content type
// inferred from the stored key's extension.
func (s *Service) Proof(ctx context.Context, orderID int64) ([]byte, string, error) {
	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return nil, "", err
	}
	if o.Path == nil || *o.Path == "" {
		return nil, "", ErrProofNotFound
	}

	bucket, key, ok := strings.Cut(*o.Path, "/")
	if !ok {
		return nil, "", fmt.Errorf("malformed proof path %q", *o.Path)
	}

	data, err := s.blobs.Get(ctx, bucket, key)
	if err != nil {
		return nil, "", fmt.Errorf("fetch proof: %w", err)
	}

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return data, contentType, nil
}
