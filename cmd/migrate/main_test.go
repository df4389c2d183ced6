package main

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMigrator struct {
	upErr   error
	steps   []int
	forced  []int
	version uint
	verErr  error
}

func (f *fakeMigrator) Up() error         { return f.upErr }
func (f *fakeMigrator) Steps(n int) error { f.steps = append(f.steps, n); return nil }
func (f *fakeMigrator) Force(v int) error { f.forced = append(f.forced, v); return nil }
func (f *fakeMigrator) Version() (uint, bool, error) {
	return f.version, false, f.verErr
}

func TestRun_UpIgnoresNoChange(t *testing.T) {
	assert.NoError(t, run(&fakeMigrator{upErr: migrate.ErrNoChange}, []string{"up"}))
	assert.Error(t, run(&fakeMigrator{upErr: errors.New("boom")}, []string{"up"}))
}

func TestRun_DownStepsBackOnce(t *testing.T) {
	m := &fakeMigrator{}
	require.NoError(t, run(m, []string{"down"}))
	assert.Equal(t, []int{-1}, m.steps)
}

func TestRun_Force(t *testing.T) {
	m := &fakeMigrator{}
	require.NoError(t, run(m, []string{"force", "1"}))
	assert.Equal(t, []int{1}, m.forced)

	assert.Error(t, run(m, []string{"force"}))
	assert.Error(t, run(m, []string{"force", "abc"}))
}

func TestRun_Version(t *testing.T) {
	assert.NoError(t, run(&fakeMigrator{verErr: migrate.ErrNilVersion}, []string{"version"}))
	assert.NoError(t, run(&fakeMigrator{version: 1}, []string{"version"}))
}

func TestRun_UnknownCommand(t *testing.T) {
	assert.Error(t, run(&fakeMigrator{}, []string{"sideways"}))
}
