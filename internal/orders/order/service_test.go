package order_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/sodrunberkicau/microservice-docker-alp/internal/orders/order"
	"github.com/sodrunberkicau/microservice-docker-alp/internal/orders/product"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	nextID     int64
	orders     map[int64]*order.Order
	insertErr  error
	setPathErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{orders: make(map[int64]*order.Order)}
}

func (f *fakeStore) Insert(_ context.Context, o *order.Order) (int64, error) {
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.nextID++
	cp := *o
	cp.ID = f.nextID
	f.orders[cp.ID] = &cp
	return cp.ID, nil
}

func (f *fakeStore) Get(_ context.Context, id int64) (*order.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeStore) List(_ context.Context) ([]order.Order, error) {
	var result []order.Order
	for id := int64(1); id <= f.nextID; id++ {
		if o, ok := f.orders[id]; ok {
			result = append(result, *o)
		}
	}
	return result, nil
}

func (f *fakeStore) SetProofPath(_ context.Context, id int64, path string) (*order.Order, error) {
	if f.setPathErr != nil {
		return nil, f.setPathErr
	}
	o, ok := f.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	o.Path = &path
	cp := *o
	return &cp, nil
}

type fakeProducts struct {
	infos map[int64]product.Info
	err   error
}

func (f *fakeProducts) ByIDs(_ context.Context, ids []int64) (map[int64]product.Info, error) {
	if f.err != nil {
		return nil, f.err
	}
	result := make(map[int64]product.Info)
	for _, id := range ids {
		if info, ok := f.infos[id]; ok {
			result[id] = info
		}
	}
	return result, nil
}

type fakePublisher struct {
	payloads [][]byte
	err      error
}

func (f *fakePublisher) Publish(_ context.Context, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.payloads = append(f.payloads, payload)
	return nil
}

type fakeBlobs struct {
	objects map[string][]byte
	putErr  error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: make(map[string][]byte)}
}

func (f *fakeBlobs) Put(_ context.Context, bucket, key string, data []byte) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.objects[bucket+"/"+key] = data
	return nil
}

func (f *fakeBlobs) Get(_ context.Context, bucket, key string) ([]byte, error) {
	data, ok := f.objects[bucket+"/"+key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

type deps struct {
	store    *fakeStore
	products *fakeProducts
	events   *fakePublisher
	live     *fakePublisher
	blobs    *fakeBlobs
}

func newService(t *testing.T) (*order.Service, *deps) {
	t.Helper()
	d := &deps{
		store:    newFakeStore(),
		products: &fakeProducts{infos: make(map[int64]product.Info)},
		events:   &fakePublisher{},
		live:     &fakePublisher{},
		blobs:    newFakeBlobs(),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := order.NewService(d.store, d.products, d.events, d.live, d.blobs, "trx", time.Second, logger)
	return svc, d
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCreateComputesTotalAcrossCart(t *testing.T) {
	svc, d := newService(t)

	id, err := svc.Create(context.Background(), 42, []order.Item{
		{ProductID: 7, Quantity: 2, Price: dec("50.00")},
		{ProductID: 9, Quantity: 3, Price: dec("10.50")},
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), id)

	row := d.store.orders[id]
	require.NotNil(t, row)
	// First line item is the row's canonical product; total covers the cart.
	assert.Equal(t, int64(7), row.ProductID)
	assert.Equal(t, 2, row.Quantity)
	assert.True(t, row.Price.Equal(dec("50.00")), "price %s", row.Price)
	assert.True(t, row.Total.Equal(dec("131.50")), "total %s", row.Total)
	assert.Equal(t, order.StatusPending, row.Status)
}

func TestCreateSingleItemScenario(t *testing.T) {
	svc, d := newService(t)

	id, err := svc.Create(context.Background(), 1, []order.Item{
		{ProductID: 7, Quantity: 2, Price: dec("50.00")},
	})
	require.NoError(t, err)

	row := d.store.orders[id]
	assert.True(t, row.Total.Equal(dec("100.00")), "total %s", row.Total)
	assert.Equal(t, order.StatusPending, row.Status)

	listings, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, id, listings[0].ID)
}

func TestCreateRejectsEmptyCart(t *testing.T) {
	svc, d := newService(t)

	_, err := svc.Create(context.Background(), 1, nil)

	var verr order.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, d.store.orders, "no row may exist after a validation failure")
	assert.Empty(t, d.events.payloads)
	assert.Empty(t, d.live.payloads)
}

func TestCreateRejectsNonPositiveQuantity(t *testing.T) {
	svc, d := newService(t)

	_, err := svc.Create(context.Background(), 1, []order.Item{
		{ProductID: 7, Quantity: 0, Price: dec("50.00")},
	})

	var verr order.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, d.store.orders)
}

func TestCreateRejectsNegativePrice(t *testing.T) {
	svc, d := newService(t)

	_, err := svc.Create(context.Background(), 1, []order.Item{
		{ProductID: 7, Quantity: 1, Price: dec("-1.00")},
	})

	var verr order.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, d.store.orders)
}

func TestCreateSucceedsWhenBrokerIsDown(t *testing.T) {
	svc, d := newService(t)
	d.events.err = errors.New("broker unavailable")
	d.live.err = errors.New("redis unavailable")

	id, err := svc.Create(context.Background(), 1, []order.Item{
		{ProductID: 7, Quantity: 2, Price: dec("50.00")},
	})

	require.NoError(t, err, "publish failure must not fail the sale")
	assert.Contains(t, d.store.orders, id, "committed row must survive the publish failure")

	listings, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, listings, 1)
}

func TestCreateFansOutToBothChannels(t *testing.T) {
	svc, d := newService(t)

	id, err := svc.Create(context.Background(), 42, []order.Item{
		{ProductID: 7, Quantity: 2, Price: dec("50.00")},
	})
	require.NoError(t, err)

	require.Len(t, d.events.payloads, 1)
	require.Len(t, d.live.payloads, 1)
	assert.Equal(t, d.events.payloads[0], d.live.payloads[0], "both channels carry the same payload")

	var fields map[string]any
	require.NoError(t, json.Unmarshal(d.events.payloads[0], &fields))
	assert.EqualValues(t, id, fields["orderId"])
	assert.EqualValues(t, 42, fields["userId"])
	assert.EqualValues(t, 7, fields["productId"])
	assert.EqualValues(t, 2, fields["quantity"])
	assert.Equal(t, "pending", fields["status"])
	assert.Contains(t, fields, "price")
	assert.Contains(t, fields, "total")
	assert.Contains(t, fields, "createdAt")
}

func TestCreateDoesNotPublishWhenInsertFails(t *testing.T) {
	svc, d := newService(t)
	d.store.insertErr = errors.New("db down")

	_, err := svc.Create(context.Background(), 1, []order.Item{
		{ProductID: 7, Quantity: 1, Price: dec("50.00")},
	})

	require.Error(t, err)
	var verr order.ValidationError
	assert.False(t, errors.As(err, &verr), "storage failure is not a validation error")
	assert.Empty(t, d.events.payloads)
	assert.Empty(t, d.live.payloads)
}

func TestListJoinsProductMetadata(t *testing.T) {
	svc, d := newService(t)
	d.products.infos[7] = product.Info{ID: 7, Name: "Keyboard", Description: "Mechanical"}

	_, err := svc.Create(context.Background(), 1, []order.Item{{ProductID: 7, Quantity: 1, Price: dec("10.00")}})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), 1, []order.Item{{ProductID: 99, Quantity: 1, Price: dec("5.00")}})
	require.NoError(t, err)

	listings, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, listings, 2)

	assert.Equal(t, "Keyboard", listings[0].Name)
	assert.Equal(t, "Mechanical", listings[0].Description)
	// Unknown product keeps empty metadata, mirroring a left join.
	assert.Empty(t, listings[1].Name)
	assert.Empty(t, listings[1].Description)
}

func TestTotalIsFrozenAfterCreation(t *testing.T) {
	svc, d := newService(t)
	d.products.infos[7] = product.Info{ID: 7, Name: "Keyboard"}

	_, err := svc.Create(context.Background(), 1, []order.Item{{ProductID: 7, Quantity: 2, Price: dec("50.00")}})
	require.NoError(t, err)

	// A later catalog price change must not leak into the stored total.
	d.products.infos[7] = product.Info{ID: 7, Name: "Keyboard", Description: "now more expensive"}

	listings, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.True(t, listings[0].Total.Equal(dec("100.00")), "total %s", listings[0].Total)
	assert.True(t, listings[0].Price.Equal(dec("50.00")), "price %s", listings[0].Price)
}

func createTestOrder(t *testing.T, svc *order.Service) int64 {
	t.Helper()
	id, err := svc.Create(context.Background(), 1, []order.Item{
		{ProductID: 7, Quantity: 1, Price: dec("50.00")},
	})
	require.NoError(t, err)
	return id
}

func TestAttachProofRoundTrip(t *testing.T) {
	svc, _ := newService(t)
	id := createTestOrder(t, svc)

	payload := []byte("\x89PNG fake image bytes")
	updated, err := svc.AttachProof(context.Background(), id, base64.StdEncoding.EncodeToString(payload), "proof.png", "image/png")
	require.NoError(t, err)
	require.NotNil(t, updated.Path)
	assert.True(t, strings.HasPrefix(*updated.Path, "trx/order_1_"), "path %s", *updated.Path)

	data, contentType, err := svc.Proof(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, payload, data, "fetched proof must be byte-identical to the upload")
	assert.Equal(t, "image/png", contentType)
}

func TestAttachProofRejectsOversizedPayload(t *testing.T) {
	svc, d := newService(t)
	id := createTestOrder(t, svc)

	big := make([]byte, order.MaxProofSize+1)
	_, err := svc.AttachProof(context.Background(), id, base64.StdEncoding.EncodeToString(big), "proof.png", "image/png")

	var verr order.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, d.blobs.objects, "nothing may reach object storage")
	assert.Nil(t, d.store.orders[id].Path, "proof reference must stay unset")
}

func TestAttachProofRejectsNonImageType(t *testing.T) {
	svc, d := newService(t)
	id := createTestOrder(t, svc)

	_, err := svc.AttachProof(context.Background(), id, base64.StdEncoding.EncodeToString([]byte("plain")), "proof.txt", "text/plain")

	var verr order.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, d.blobs.objects)
	assert.Nil(t, d.store.orders[id].Path)
}

func TestAttachProofRejectsInvalidBase64(t *testing.T) {
	svc, d := newService(t)
	id := createTestOrder(t, svc)

	_, err := svc.AttachProof(context.Background(), id, "not-base64!!!", "proof.png", "image/png")

	var verr order.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, d.blobs.objects)
}

func TestAttachProofRejectsMissingFields(t *testing.T) {
	svc, _ := newService(t)
	id := createTestOrder(t, svc)

	_, err := svc.AttachProof(context.Background(), id, "", "proof.png", "image/png")

	var verr order.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestAttachProofUnknownOrder(t *testing.T) {
	svc, d := newService(t)

	_, err := svc.AttachProof(context.Background(), 123, base64.StdEncoding.EncodeToString([]byte("img")), "proof.png", "image/png")

	require.ErrorIs(t, err, order.ErrOrderNotFound)
	assert.Empty(t, d.blobs.objects, "unknown order must be rejected before upload")
}

func TestRepeatedUploadsKeepDistinctKeys(t *testing.T) {
	svc, d := newService(t)
	id := createTestOrder(t, svc)

	first, err := svc.AttachProof(context.Background(), id, base64.StdEncoding.EncodeToString([]byte("one")), "a.png", "image/png")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := svc.AttachProof(context.Background(), id, base64.StdEncoding.EncodeToString([]byte("two")), "b.png", "image/png")
	require.NoError(t, err)

	assert.NotEqual(t, *first.Path, *second.Path, "each upload attempt gets a fresh key")
	assert.Len(t, d.blobs.objects, 2, "earlier proofs are never overwritten")

	data, _, err := svc.Proof(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), data, "the row keeps only the latest reference")
}

func TestProofBeforeUpload(t *testing.T) {
	svc, _ := newService(t)
	id := createTestOrder(t, svc)

	_, _, err := svc.Proof(context.Background(), id)
	require.ErrorIs(t, err, order.ErrProofNotFound)
}

func TestProofUnknownOrder(t *testing.T) {
	svc, _ := newService(t)

	_, _, err := svc.Proof(context.Background(), 99)
	require.ErrorIs(t, err, order.ErrOrderNotFound)
}
