package controllers

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/dmitrijs2005/carfinder/internal/logging"
	"github.com/dmitrijs2005/carfinder/internal/models"
	"github.com/dmitrijs2005/carfinder/internal/repositories/cars"
	"github.com/dmitrijs2005/carfinder/internal/viewstate"
)

const (
	MsgLoadFailed   = "Failed to load cars. Please try again."
	MsgFilterFailed = "Failed to filter cars."
	MsgSearchFailed = "Search failed. Please try again."
	MsgAddFailed    = "Unknown error occurred"
)

// AddResult tracks the add-car form independently of the list.
type AddResult struct {
	Phase viewstate.Phase
	Err   string
}

// CarState is shared by the car list and add-car screens.
type CarState struct {
	Cars  []models.Car
	Phase viewstate.Phase
	Err   string
	Add   AddResult
}

// CarController serves the list and the add form.
//
// List operations are numbered as they start. A response is published only
// if no newer list operation has started since, so a slow earlier search
// cannot overwrite the results of a later one.
type CarController struct {
	repo  cars.Repository
	log   logging.Logger
	state *viewstate.Store[CarState]
	gen   atomic.Uint64
}

func NewCarController(repo cars.Repository, log logging.Logger) *CarController {
	if log == nil {
		log = logging.Nop()
	}
	return &CarController{
		repo:  repo,
		log:   log,
		state: viewstate.New(CarState{Cars: []models.Car{}}),
	}
}

func (c *CarController) State() *viewstate.Store[CarState] { return c.state }

func (c *CarController) runList(ctx context.Context, op, failMsg string, fetch func(context.Context) ([]models.Car, error)) {
	gen := c.gen.Add(1)
	c.state.Update(func(s CarState) CarState {
		s.Phase = viewstate.Loading
		s.Err = ""
		return s
	})

	list, err := fetch(ctx)
	if err != nil {
		c.log.Warn(ctx, op+" failed", "error", err)
	}

	published := c.state.UpdateIf(func(s CarState) (CarState, bool) {
		if c.gen.Load() != gen {
			return s, false
		}
		if err != nil {
			s.Phase = viewstate.Error
			s.Err = failMsg
			return s, true
		}
		s.Phase = viewstate.Success
		s.Cars = list
		return s, true
	})
	if !published {
		c.log.Debug(ctx, "stale response dropped", "op", op, "generation", gen)
	}
}

func (c *CarController) LoadAll(ctx context.Context) {
	c.runList(ctx, "load cars", MsgLoadFailed, c.repo.ListAll)
}

func (c *CarController) Filter(ctx context.Context, status models.CarStatus) {
	c.runList(ctx, "filter cars", MsgFilterFailed, func(ctx context.Context) ([]models.Car, error) {
		return c.repo.ListByStatus(ctx, status)
	})
}

// Search treats a blank query as LoadAll.
func (c *CarController) Search(ctx context.Context, query string) {
	if strings.TrimSpace(query) == "" {
		c.LoadAll(ctx)
		return
	}
	c.runList(ctx, "search cars", MsgSearchFailed, func(ctx context.Context) ([]models.Car, error) {
		return c.repo.Search(ctx, query)
	})
}

func (c *CarController) setAdd(r AddResult) {
	c.state.Update(func(s CarState) CarState {
		s.Add = r
		return s
	})
}

func (c *CarController) addFailed(ctx context.Context, err error) {
	c.log.Warn(ctx, "add car failed", "error", err)
	msg := err.Error()
	if msg == "" {
		msg = MsgAddFailed
	}
	c.setAdd(AddResult{Phase: viewstate.Error, Err: msg})
}

// Add submits car, uploading image first when given. After a successful
// insert the whole list is reloaded. When the insert fails after an upload
// the uploaded image is removed on a best-effort basis.
func (c *CarController) Add(ctx context.Context, car models.Car, image []byte) {
	c.setAdd(AddResult{Phase: viewstate.Loading})

	if err := car.Validate(); err != nil {
		c.addFailed(ctx, err)
		return
	}

	var uploaded string
	if image != nil {
		url, err := c.repo.UploadImage(ctx, image)
		if err != nil {
			c.addFailed(ctx, err)
			return
		}
		uploaded = url
		car.ImageURL = &uploaded
	}

	if err := c.repo.Add(ctx, car); err != nil {
		if uploaded != "" {
			if derr := c.repo.DiscardImage(ctx, uploaded); derr != nil {
				c.log.Warn(ctx, "orphaned car image left in storage", "url", uploaded, "error", derr)
			}
		}
		c.addFailed(ctx, err)
		return
	}

	c.setAdd(AddResult{Phase: viewstate.Success})
	c.LoadAll(ctx)
}

// ResetAdd returns the add form to Idle.
func (c *CarController) ResetAdd() {
	c.setAdd(AddResult{})
}
