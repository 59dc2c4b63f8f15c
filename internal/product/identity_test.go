package product

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rkm/insar-pipeline/internal/scene"
)

func sceneMeta(name string, start, stop string) scene.Metadata {
	parse := func(v string) time.Time {
		ts, err := time.Parse("20060102T150405", v)
		if err != nil {
			panic(err)
		}
		return ts
	}
	return scene.Metadata{
		SceneName:       name,
		Platform:        "S1A",
		FlightDirection: "ASCENDING",
		PathNumber:      64,
		Start:           parse(start),
		Stop:            parse(stop),
	}
}

func sampleGroups() (ref, sec []scene.Metadata) {
	ref = []scene.Metadata{
		sceneMeta("S1A_IW_SLC__1SDV_20210723T014947_20210723T015013_038894_04979C_9E85", "20210723T014947", "20210723T015013"),
	}
	sec = []scene.Metadata{
		sceneMeta("S1A_IW_SLC__1SDV_20210711T014947_20210711T015013_038719_049102_C9ZZ", "20210711T014947", "20210711T015013"),
		sceneMeta("S1A_IW_SLC__1SDV_20210711T015011_20210711T015037_038719_049102_D1AA", "20210711T015011", "20210711T015037"),
	}
	return ref, sec
}

var sampleExtent = [4]float64{-119.08, 33.41, -115.99, 35.43}

func standardParams() Params {
	p := DefaultParams()
	p.FrameID = 25502
	return p
}

func TestDerive_Fields(t *testing.T) {
	ref, sec := sampleGroups()
	id, err := Derive(ref, sec, sampleExtent, standardParams())
	require.NoError(t, err)

	assert.Equal(t, "S1", id.Mission)
	assert.Equal(t, "A", id.FlightDirection)
	assert.Equal(t, 64, id.Track)
	assert.Equal(t, "20210723", id.ReferenceDate)
	assert.Equal(t, "20210711", id.SecondaryDate)
	// Reference window 01:49:47 to 01:50:13, center 01:50:00.
	assert.Equal(t, "015000", id.ReferenceTime)
	assert.Equal(t, "00118W_00034N", id.Geocode)
	assert.Equal(t, "3.0.1", id.DatasetVersion)
	assert.Equal(t, "1c", id.Version)
	assert.False(t, id.Custom)

	assert.Regexp(t, regexp.MustCompile(
		`^S1-GUNW-A-R-064-tops-20210723_20210711-015000-00118W_00034N-PP-[0-9a-f]{4}-v3_0_1$`), id.ID)
}

func TestDerive_Pure(t *testing.T) {
	ref, sec := sampleGroups()

	a, err := Derive(ref, sec, sampleExtent, standardParams())
	require.NoError(t, err)
	b, err := Derive(ref, sec, sampleExtent, standardParams())
	require.NoError(t, err)
	assert.Equal(t, a, b)

	// Listing order inside a group cannot perturb the hash.
	swapped := []scene.Metadata{sec[1], sec[0]}
	c, err := Derive(ref, swapped, sampleExtent, standardParams())
	require.NoError(t, err)
	assert.Equal(t, a.ID, c.ID)
}

func TestDerive_HashTracksSceneSet(t *testing.T) {
	ref, sec := sampleGroups()
	a, err := Derive(ref, sec, sampleExtent, standardParams())
	require.NoError(t, err)

	b, err := Derive(ref, sec[:1], sampleExtent, standardParams())
	require.NoError(t, err)
	assert.NotEqual(t, a.Hash, b.Hash)
	assert.Len(t, a.Hash, 4)
}

func TestDerive_OptionalLayersKeepCoreFields(t *testing.T) {
	ref, sec := sampleGroups()

	full, err := Derive(ref, sec, sampleExtent, standardParams())
	require.NoError(t, err)

	noCorrections := standardParams()
	noCorrections.EstimateIonosphereDelay = false
	noCorrections.ComputeSolidEarthTide = false
	bare, err := Derive(ref, sec, sampleExtent, noCorrections)
	require.NoError(t, err)

	assert.Equal(t, full.Track, bare.Track)
	assert.Equal(t, full.ReferenceDate, bare.ReferenceDate)
	assert.Equal(t, full.ReferenceTime, bare.ReferenceTime)
	assert.Equal(t, full.Geocode, bare.Geocode)
	assert.Equal(t, full.Hash, bare.Hash)

	assert.Equal(t, "1c", full.Version)
	assert.Equal(t, "1b", bare.Version)
	// Dropping default layers is a custom configuration.
	assert.True(t, bare.Custom)
}

func TestDerive_CustomPrefix(t *testing.T) {
	ref, sec := sampleGroups()

	custom := func(mutate func(*Params)) *Identity {
		p := standardParams()
		mutate(&p)
		id, err := Derive(ref, sec, sampleExtent, p)
		require.NoError(t, err)
		return id
	}

	assert.NotContains(t,
		mustDerive(t, ref, sec, sampleExtent, standardParams()).ID, "CUSTOM")

	for name, mutate := range map[string]func(*Params){
		"unset frame":     func(p *Params) { p.FrameID = -1 },
		"resolution":      func(p *Params) { p.OutputResolution = 30 },
		"dense offsets":   func(p *Params) { p.DoDenseOffsets = true },
		"wrapped phase":   func(p *Params) { p.WrappedPhaseLayer = true },
		"esd threshold":   func(p *Params) { p.ESDCoherenceThreshold = 0.7 },
		"goldstein power": func(p *Params) { p.GoldsteinFilterPower = 0.8 },
	} {
		id := custom(mutate)
		assert.True(t, id.Custom, name)
		assert.Contains(t, id.ID, "S1-GUNW_CUSTOM-", name)
	}
}

func mustDerive(t *testing.T, ref, sec []scene.Metadata, extent [4]float64, p Params) *Identity {
	t.Helper()
	id, err := Derive(ref, sec, extent, p)
	require.NoError(t, err)
	return id
}

func TestDerive_MissingFlightDirection(t *testing.T) {
	ref, sec := sampleGroups()

	// CMR's direction attribute is optional; one blank record is tolerated
	// as long as another carries the direction.
	sec[0].FlightDirection = ""
	id, err := Derive(ref, sec, sampleExtent, standardParams())
	require.NoError(t, err)
	assert.Equal(t, "A", id.FlightDirection)

	for i := range ref {
		ref[i].FlightDirection = ""
	}
	for i := range sec {
		sec[i].FlightDirection = ""
	}
	_, err = Derive(ref, sec, sampleExtent, standardParams())
	assert.ErrorIs(t, err, scene.ErrGeometryInconsistency)
}

func TestDerive_EmptyGroup(t *testing.T) {
	ref, sec := sampleGroups()
	_, err := Derive(nil, sec, sampleExtent, standardParams())
	assert.ErrorIs(t, err, ErrEmptyGroup)
	_, err = Derive(ref, nil, sampleExtent, standardParams())
	assert.ErrorIs(t, err, ErrEmptyGroup)
}

func TestGeocode(t *testing.T) {
	assert.Equal(t, "00118W_00034N", geocode([4]float64{-119.08, 33.41, -115.99, 35.43}))
	assert.Equal(t, "00107E_00007S", geocode([4]float64{106.6, -7.9, 107.8, -6.5}))

	// Antimeridian extents stay continuous upstream; the code wraps back.
	assert.Equal(t, "00180W_00066N", geocode([4]float64{179, 65.6, 181, 66.6}))
}
