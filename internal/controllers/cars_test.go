package controllers

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/carfinder/internal/gateway"
	"github.com/dmitrijs2005/carfinder/internal/gateway/gatewaytest"
	"github.com/dmitrijs2005/carfinder/internal/models"
	"github.com/dmitrijs2005/carfinder/internal/repositories/cars"
	"github.com/dmitrijs2005/carfinder/internal/viewstate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(t *testing.T) (*gatewaytest.Fake, *CarController) {
	t.Helper()
	f := gatewaytest.New()
	f.Seed(cars.Table,
		map[string]any{"make": "Toyota", "model": "Corolla", "status": "LOST"},
		map[string]any{"make": "Honda", "model": "Civic", "status": "FOUND"},
	)
	return f, NewCarController(cars.NewRepository(f), nil)
}

func makes(list []models.Car) []string {
	out := make([]string, 0, len(list))
	for _, c := range list {
		out = append(out, c.Make)
	}
	return out
}

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func TestCarController_LoadFilterSearch(t *testing.T) {
	_, c := seeded(t)
	ctx := context.Background()

	c.LoadAll(ctx)
	s := c.State().Get()
	assert.Equal(t, viewstate.Success, s.Phase)
	assert.Equal(t, []string{"Toyota", "Honda"}, makes(s.Cars))

	c.Filter(ctx, models.CarStatusFound)
	assert.Equal(t, []string{"Honda"}, makes(c.State().Get().Cars))

	c.Search(ctx, "COROL")
	assert.Equal(t, []string{"Toyota"}, makes(c.State().Get().Cars))
}

func TestCarController_BlankSearchLoadsAll(t *testing.T) {
	f, c := seeded(t)
	ctx := context.Background()

	c.Filter(ctx, models.CarStatusLost)
	c.Search(ctx, "   ")

	assert.Equal(t, []string{"Toyota", "Honda"}, makes(c.State().Get().Cars))
	// blank input never reaches the search filter
	assert.Equal(t, 2, f.CountCalls("select"))
}

func TestCarController_CannedErrors(t *testing.T) {
	f, c := seeded(t)
	ctx := context.Background()
	c.LoadAll(ctx)
	f.Fail = func(string) error { return gateway.NetworkError(errors.New("offline")) }

	c.LoadAll(ctx)
	s := c.State().Get()
	assert.Equal(t, viewstate.Error, s.Phase)
	assert.Equal(t, MsgLoadFailed, s.Err)
	// previous rows stay visible
	assert.Len(t, s.Cars, 2)

	c.Filter(ctx, models.CarStatusLost)
	assert.Equal(t, MsgFilterFailed, c.State().Get().Err)

	c.Search(ctx, "x")
	assert.Equal(t, MsgSearchFailed, c.State().Get().Err)
}

func TestCarController_AddWithImageReloads(t *testing.T) {
	f, c := seeded(t)
	ctx := context.Background()
	_, err := f.SignUp(ctx, "a@b.com", "secret1")
	require.NoError(t, err)

	c.Add(ctx, models.Car{Make: "VW", Model: "Golf", Status: models.CarStatusLost}, tinyPNG(t))

	s := c.State().Get()
	assert.Equal(t, viewstate.Success, s.Add.Phase)
	assert.Equal(t, viewstate.Success, s.Phase)
	require.Len(t, s.Cars, 3)
	added := s.Cars[2]
	assert.Equal(t, "VW", added.Make)
	require.NotNil(t, added.ImageURL)
	assert.Contains(t, *added.ImageURL, cars.ImageBucket)
	assert.NotZero(t, added.ID)
	assert.NotNil(t, added.CreatedAt)

	c.ResetAdd()
	assert.Equal(t, AddResult{}, c.State().Get().Add)
}

func TestCarController_AddValidationFailsWithoutIO(t *testing.T) {
	f, c := seeded(t)
	c.Add(context.Background(), models.Car{Model: "Golf", Status: models.CarStatusLost}, tinyPNG(t))

	s := c.State().Get()
	assert.Equal(t, viewstate.Error, s.Add.Phase)
	assert.Equal(t, models.ErrMakeRequired.Error(), s.Add.Err)
	assert.Empty(t, f.Calls())
}

func TestCarController_AddWithoutSession(t *testing.T) {
	f, c := seeded(t)
	c.Add(context.Background(), models.Car{Make: "VW", Model: "Golf", Status: models.CarStatusFound}, nil)

	s := c.State().Get()
	assert.Equal(t, viewstate.Error, s.Add.Phase)
	assert.Equal(t, gateway.ErrUnauthenticated.Error(), s.Add.Err)
	assert.Zero(t, f.CountCalls("insert"))
}

func TestCarController_AddInsertFailureDiscardsUpload(t *testing.T) {
	f, c := seeded(t)
	ctx := context.Background()
	_, err := f.SignUp(ctx, "a@b.com", "secret1")
	require.NoError(t, err)
	f.Fail = func(op string) error {
		if op == "insert" {
			return &gateway.RemoteError{Status: 400, Code: "23502", Message: "null value in column"}
		}
		return nil
	}

	c.Add(ctx, models.Car{Make: "VW", Model: "Golf", Status: models.CarStatusLost}, tinyPNG(t))

	s := c.State().Get()
	assert.Equal(t, viewstate.Error, s.Add.Phase)
	assert.Contains(t, s.Add.Err, "null value")
	require.Equal(t, 1, f.CountCalls("upload"))
	require.Equal(t, 1, f.CountCalls("remove"))

	var key string
	for _, call := range f.Calls() {
		if call.Op == "upload" {
			key = call.Key
		}
	}
	_, stored := f.Object(cars.ImageBucket, key)
	assert.False(t, stored)
	assert.Len(t, f.Rows(cars.Table), 2)
}

// blockingRepo lets a test decide when each search returns.
type blockingRepo struct {
	cars.Repository
	mu      sync.Mutex
	entered chan string
	release map[string]chan []models.Car
}

func newBlockingRepo(queries ...string) *blockingRepo {
	r := &blockingRepo{entered: make(chan string, len(queries)), release: map[string]chan []models.Car{}}
	for _, q := range queries {
		r.release[q] = make(chan []models.Car)
	}
	return r
}

func (r *blockingRepo) Search(ctx context.Context, q string) ([]models.Car, error) {
	r.mu.Lock()
	ch := r.release[q]
	r.mu.Unlock()
	r.entered <- q
	return <-ch, nil
}

func waitEntered(t *testing.T, r *blockingRepo, want string) {
	t.Helper()
	select {
	case got := <-r.entered:
		require.Equal(t, want, got)
	case <-time.After(2 * time.Second):
		t.Fatalf("search %q never started", want)
	}
}

func TestCarController_StaleSearchIsDropped(t *testing.T) {
	repo := newBlockingRepo("to", "toyota")
	c := NewCarController(repo, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); c.Search(ctx, "to") }()
	waitEntered(t, repo, "to")
	go func() { defer wg.Done(); c.Search(ctx, "toyota") }()
	waitEntered(t, repo, "toyota")

	// the newer search answers first, the older one arrives late
	repo.release["toyota"] <- []models.Car{{Make: "Toyota"}}
	repo.release["to"] <- []models.Car{{Make: "Toyota"}, {Make: "Tofas"}}
	wg.Wait()

	s := c.State().Get()
	assert.Equal(t, viewstate.Success, s.Phase)
	assert.Equal(t, []string{"Toyota"}, makes(s.Cars))
}

func TestCarController_LateNewerSearchWins(t *testing.T) {
	repo := newBlockingRepo("a", "ab")
	c := NewCarController(repo, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); c.Search(ctx, "a") }()
	waitEntered(t, repo, "a")
	go func() { defer wg.Done(); c.Search(ctx, "ab") }()
	waitEntered(t, repo, "ab")

	repo.release["a"] <- []models.Car{{Make: "Audi"}, {Make: "Alfa"}}
	assert.Equal(t, viewstate.Loading, c.State().Get().Phase)
	repo.release["ab"] <- []models.Car{{Make: "Abarth"}}
	wg.Wait()

	assert.Equal(t, []string{"Abarth"}, makes(c.State().Get().Cars))
}
