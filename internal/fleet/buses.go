package fleet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"busroot.app/docstore"
	"busroot.app/internal/auth"
	"busroot.app/internal/logging"
	"busroot.app/internal/models"
	"busroot.app/internal/search"
)

// RegisterBusInput is everything the registration form submits.
type RegisterBusInput struct {
	Bus             models.Bus
	Password        string
	ConfirmPassword string
	// ConfirmDuplicate registers the bus even when another bus already uses
	// the same English name.
	ConfirmDuplicate bool
	FrontImage       []byte
	RearImage        []byte
}

// RegisterBus creates the operator account and stores a new bus under a fresh id.
func (m *Manager) RegisterBus(ctx context.Context, in RegisterBusInput) (models.Bus, error) {
	bus := in.Bus
	bus.ID = ""
	bus.Email = auth.NormalizeEmail(bus.Email)
	bus.Images = models.BusImages{}
	bus.Timings = clearDerived(bus.Timings)

	verr := m.validateStruct(bus)
	if err := auth.ValidatePassword(in.Password); err != nil {
		verr.add("password", strings.TrimPrefix(err.Error(), auth.ErrWeakPassword.Error()+": "))
	}
	if in.Password != in.ConfirmPassword {
		verr.add("confirmPassword", ErrPasswordMismatch.Error())
	}
	if !verr.empty() {
		return models.Bus{}, verr
	}

	if !in.ConfirmDuplicate {
		duplicate, err := m.hasBusNamed(ctx, bus.BusName.English)
		if err != nil {
			return models.Bus{}, err
		}
		if duplicate {
			return models.Bus{}, fmt.Errorf("%w: %q", ErrDuplicateBusName, bus.BusName.English)
		}
	}

	bus.ID = uuid.NewString()

	if len(in.FrontImage) > 0 {
		url, err := m.blobs.Upload(ctx, "buses/front/"+bus.ID, in.FrontImage)
		if err != nil {
			return models.Bus{}, fmt.Errorf("upload front image: %w", err)
		}
		bus.Images.Front = url
	}
	if len(in.RearImage) > 0 {
		url, err := m.blobs.Upload(ctx, "buses/rear/"+bus.ID, in.RearImage)
		if err != nil {
			m.discardImages(ctx, bus)
			return models.Bus{}, fmt.Errorf("upload rear image: %w", err)
		}
		bus.Images.Rear = url
	}

	// Images go first so a rejected upload does not leave the email taken.
	if _, err := m.creds.CreateAccount(ctx, bus.Email, in.Password); err != nil {
		m.discardImages(ctx, bus)
		return models.Bus{}, err
	}

	if err := m.store.Set(ctx, busesCollection, docstore.Key{ID: bus.ID}, bus); err != nil {
		m.discardImages(ctx, bus)
		return models.Bus{}, fmt.Errorf("store bus: %w", err)
	}
	m.cache.Delete(locationsCacheKey)

	logging.LogOperation(m.logger, "bus_registered",
		slog.String("bus_id", bus.ID),
		slog.String("bus_name", bus.BusName.English))

	return bus, nil
}

// discardImages removes the uploads of a registration that did not complete.
func (m *Manager) discardImages(ctx context.Context, bus models.Bus) {
	for _, url := range []string{bus.Images.Front, bus.Images.Rear} {
		if url == "" {
			continue
		}
		if err := m.blobs.Remove(context.WithoutCancel(ctx), url); err != nil {
			logging.LogError(m.logger, "failed to discard bus image", err,
				slog.String("bus_id", bus.ID),
				slog.String("url", url))
		}
	}
}

func (m *Manager) hasBusNamed(ctx context.Context, name string) (bool, error) {
	buses, err := m.ListBuses(ctx)
	if err != nil {
		return false, err
	}
	name = strings.TrimSpace(name)
	for _, bus := range buses {
		if strings.EqualFold(strings.TrimSpace(bus.BusName.English), name) {
			return true, nil
		}
	}
	return false, nil
}

// OperatorLogin signs the operator in and returns the bus registered under
// their email.
func (m *Manager) OperatorLogin(ctx context.Context, email, password string) (models.Bus, error) {
	account, err := m.creds.SignIn(ctx, email, password)
	if err != nil {
		return models.Bus{}, err
	}

	docs, err := m.store.EqualTo(ctx, busesCollection, "email", account.Email)
	if err != nil {
		return models.Bus{}, fmt.Errorf("find bus for %s: %w", account.Email, err)
	}
	if len(docs) == 0 {
		return models.Bus{}, fmt.Errorf("%w: no bus registered for %s", ErrBusNotFound, account.Email)
	}
	return decodeBus(docs[0])
}

func (m *Manager) GetBus(ctx context.Context, id string) (models.Bus, error) {
	var bus models.Bus
	err := m.store.Get(ctx, busesCollection, docstore.Key{ID: id}, &bus)
	if errors.Is(err, docstore.ErrNotFound) || errors.Is(err, docstore.ErrInvalidKey) {
		return models.Bus{}, fmt.Errorf("%w: %s", ErrBusNotFound, id)
	}
	if err != nil {
		return models.Bus{}, err
	}
	bus.ID = id
	return bus, nil
}

// ListBuses returns every stored bus. Records that no longer decode are
// logged and skipped.
func (m *Manager) ListBuses(ctx context.Context) ([]models.Bus, error) {
	docs, err := m.store.List(ctx, busesCollection)
	if err != nil {
		return nil, fmt.Errorf("list buses: %w", err)
	}

	buses := make([]models.Bus, 0, len(docs))
	for _, doc := range docs {
		bus, err := decodeBus(doc)
		if err != nil {
			logging.LogError(m.logger, "skipping undecodable bus", err, slog.String("bus_id", doc.Key.ID))
			continue
		}
		buses = append(buses, bus)
	}
	return buses, nil
}

func decodeBus(doc docstore.Document) (models.Bus, error) {
	var bus models.Bus
	if err := doc.Decode(&bus); err != nil {
		return models.Bus{}, err
	}
	bus.ID = doc.Key.ID
	return bus, nil
}

// UpdateBus replaces the editable fields of a bus. The id, the operator email,
// the English name and the images cannot change here. Distances and fares are
// carried over from stored timings with the same endpoints, since only
// recalculation derives them.
func (m *Manager) UpdateBus(ctx context.Context, id string, update models.Bus) (models.Bus, error) {
	existing, err := m.GetBus(ctx, id)
	if err != nil {
		return models.Bus{}, err
	}

	update.ID = id
	update.Email = existing.Email
	update.BusName.English = existing.BusName.English
	update.Images = existing.Images
	update.Timings = carryDerived(existing.Timings, update.Timings)

	if verr := m.validateStruct(update); !verr.empty() {
		return models.Bus{}, verr
	}

	if err := m.store.Set(ctx, busesCollection, docstore.Key{ID: id}, update); err != nil {
		return models.Bus{}, fmt.Errorf("store bus: %w", err)
	}
	m.cache.Delete(locationsCacheKey)

	logging.LogOperation(m.logger, "bus_updated", slog.String("bus_id", id))
	return update, nil
}

func clearDerived(timings []models.Timing) []models.Timing {
	cleared := make([]models.Timing, len(timings))
	for i, timing := range timings {
		timing.Distance = nil
		timing.Fare = nil
		cleared[i] = timing
	}
	return cleared
}

func carryDerived(stored, updated []models.Timing) []models.Timing {
	result := clearDerived(updated)
	for i := range result {
		for _, old := range stored {
			if old.Start == result[i].Start && old.End == result[i].End {
				result[i].Distance = old.Distance
				result[i].Fare = old.Fare
				break
			}
		}
	}
	return result
}

// TimingSlots returns the operator schedule grid for a bus.
func (m *Manager) TimingSlots(ctx context.Context, id string) ([]models.TimingSlot, error) {
	bus, err := m.GetBus(ctx, id)
	if err != nil {
		return nil, err
	}
	return search.TimingSlots(bus), nil
}

// SearchByName runs the name filter over every stored bus.
func (m *Manager) SearchByName(ctx context.Context, query string) ([]models.Bus, error) {
	buses, err := m.ListBuses(ctx)
	if err != nil {
		return nil, err
	}
	return search.ByName(buses, query), nil
}

// SearchByRoute runs the route filter over every stored bus.
func (m *Manager) SearchByRoute(ctx context.Context, q search.RouteQuery) ([]models.Bus, error) {
	buses, err := m.ListBuses(ctx)
	if err != nil {
		return nil, err
	}
	return search.ByRoute(buses, q)
}

// Locations returns every known stop name. The list is cached until the next
// bus write.
func (m *Manager) Locations(ctx context.Context) ([]string, error) {
	if cached, ok := m.cache.Get(locationsCacheKey); ok {
		return cached.([]string), nil
	}

	buses, err := m.ListBuses(ctx)
	if err != nil {
		return nil, err
	}
	locations := search.Locations(buses)
	m.cache.SetDefault(locationsCacheKey, locations)
	return locations, nil
}

func (m *Manager) SuggestLocations(ctx context.Context, prefix string) ([]string, error) {
	locations, err := m.Locations(ctx)
	if err != nil {
		return nil, err
	}
	return search.Suggest(locations, prefix), nil
}
