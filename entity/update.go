package entity

import (
	"context"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/myjd"
	"sync"
	"time"
)

const Update = "update"

const (
	AttrInstalledVersion  = "installed_version"
	AttrLatestVersion     = "latest_version"
	AttrLatestVersionDate = "latest_version_date"
	AttrTitle             = "title"
)

type updateEntity struct {
	*base

	lock            *sync.Mutex
	installed       string
	latest          string
	latestDate      string
	updateAvailable bool
	checkedAt       time.Time
	lookedUpAt      time.Time
}

func NewUpdate(deps Dependencies, d myjd.Device) Installable {
	u := &updateEntity{
		base: newBase(deps, description{
			key:            Update,
			name:           "JDownloader %s Update",
			kind:           KindUpdate,
			category:       CategoryDiagnostic,
			enabledDefault: true,
		}, d),
		lock: &sync.Mutex{},
	}

	u.poll = u.refresh
	return u
}

func (u *updateEntity) refresh(ctx context.Context) error {
	d, err := u.device()
	if err != nil {
		return err
	}

	updateAvailable, err := myjd.Query(ctx, u.deps.Hub, d.IsUpdateAvailable)
	if err != nil {
		return err
	}

	u.lock.Lock()
	defer u.lock.Unlock()

	flipped := u.updateAvailable != updateAvailable

	if len(u.installed) == 0 || flipped {
		revision, err := myjd.Query(ctx, u.deps.Hub, d.CoreRevision)
		if err != nil {
			return err
		}
		u.installed = revision
	}

	if u.deps.LatestVersionInterval > 0 && u.deps.Versions != nil &&
		(len(u.latest) == 0 || flipped || (updateAvailable && u.deps.now().Sub(u.checkedAt) > u.deps.LatestVersionInterval)) {
		u.lookupLatest(ctx)
	} else if updateAvailable {
		u.latest = u.installed + "+"
	} else {
		u.latest = u.installed
	}

	u.updateAvailable = updateAvailable

	u.set(u.installed, map[string]any{
		AttrInstalledVersion:  u.installed,
		AttrLatestVersion:     u.latest,
		AttrLatestVersionDate: u.latestDate,
		AttrTitle:             Title,
	})

	return nil
}

// lookupLatest is throttled to one lookup per scan interval, a failed lookup keeps the previous latest version.
func (u *updateEntity) lookupLatest(ctx context.Context) {
	now := u.deps.now()

	if !u.lookedUpAt.IsZero() && now.Sub(u.lookedUpAt) < u.deps.ScanInterval {
		return
	}
	u.lookedUpAt = now

	latest, err := u.deps.Versions.Latest(ctx)
	if err != nil {
		u.deps.Logger.LogWarn(ctx, "Failed to query latest version.", logwrap.Err(err))
		return
	}

	u.latest = latest.Revision
	u.latestDate = latest.Date
	u.checkedAt = now
}

func (u *updateEntity) Install(ctx context.Context) error {
	d, err := u.device()
	if err != nil {
		return err
	}

	return u.deps.Hub.Exec(ctx, d.RestartAndUpdate)
}
