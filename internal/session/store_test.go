package session

import (
	"fmt"
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

// fakeKV is a map backed KV for tests.
type fakeKV struct {
	data map[string]string
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string]string)}
}

func (f *fakeKV) Get(key string) (string, error) {
	return f.data[key], nil
}

func (f *fakeKV) Set(key string, value interface{}, expiration time.Duration) error {
	f.data[key] = fmt.Sprintf("%v", value)
	return nil
}

func (f *fakeKV) Del(key string) error {
	delete(f.data, key)
	return nil
}

type recovered struct {
	Email string `json:"email"`
}

func TestPageDataIsConsumedOnce(t *testing.T) {
	store := NewStore(newFakeKV(), time.Hour)

	err := store.SetPageData("sid-1", "submitRegistration", recovered{Email: "a@example.gov.uk"})
	assert.NilError(t, err)

	var out recovered
	found, err := store.GetPageData("sid-1", "submitRegistration", &out)
	assert.NilError(t, err)
	assert.Assert(t, found)
	assert.Equal(t, "a@example.gov.uk", out.Email)

	// second read finds nothing
	var again recovered
	found, err = store.GetPageData("sid-1", "submitRegistration", &again)
	assert.NilError(t, err)
	assert.Assert(t, !found)
	assert.Equal(t, "", again.Email)
}

func TestPageDataIsScopedBySessionAndName(t *testing.T) {
	store := NewStore(newFakeKV(), time.Hour)

	assert.NilError(t, store.SetPageData("sid-1", "worldpay3dsFlex", recovered{Email: "one"}))

	var out recovered
	found, err := store.GetPageData("sid-2", "worldpay3dsFlex", &out)
	assert.NilError(t, err)
	assert.Assert(t, !found)

	found, err = store.GetPageData("sid-1", "submitRegistration", &out)
	assert.NilError(t, err)
	assert.Assert(t, !found)
}

func TestFlashIsOneShot(t *testing.T) {
	store := NewStore(newFakeKV(), time.Hour)

	assert.NilError(t, store.SetFlash("sid-1", "Your sign-in method has been updated"))

	msg, err := store.ConsumeFlash("sid-1")
	assert.NilError(t, err)
	assert.Equal(t, "Your sign-in method has been updated", msg)

	msg, err = store.ConsumeFlash("sid-1")
	assert.NilError(t, err)
	assert.Equal(t, "", msg)
}

func TestConsumeFlashEmptySession(t *testing.T) {
	store := NewStore(newFakeKV(), time.Hour)

	msg, err := store.ConsumeFlash("unknown")
	assert.NilError(t, err)
	assert.Equal(t, "", msg)
}
