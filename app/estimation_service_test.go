package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"goreplicate/adapters/data"
	"goreplicate/adapters/rng"
	"goreplicate/domain/core"
	"goreplicate/domain/dataset"
	"goreplicate/internal/config"
	"goreplicate/internal/errors"
	"goreplicate/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *EstimationService {
	reader := data.NewDataReader(nil)
	return NewEstimationService(reader, reader, rng.New(), nil, "test")
}

// writeSocialSessions writes two sessions of synthetic decisions to one file.
func writeSocialSessions(t *testing.T, dir string) (string, testkit.SocialGeneratorConfig) {
	t.Helper()
	gen := testkit.DefaultSocialConfig()
	gen.Subjects = 30
	first := testkit.NewSocialGenerator(gen).Generate()

	second := gen
	second.Session = 2
	second.Seed = 7
	second.Beta = 0.15
	obs := append(first, testkit.NewSocialGenerator(second).Generate()...)

	return testkit.WriteCSV(t, dir, "social.csv", testkit.SocialRecords(obs)), gen
}

func TestRun_SocialTwoSessions(t *testing.T) {
	dir := t.TempDir()
	path, gen := writeSocialSessions(t, dir)
	exclusions := testkit.WriteExclusions(t, dir, "exclude.csv", []core.SubjectID{"1001", "9999"})

	cfg := config.DefaultSocial()
	cfg.Data.Path = path
	cfg.Data.Exclusions = exclusions
	cfg.Output.Dir = filepath.Join(dir, "results")
	cfg.Output.Formats = []string{config.FormatManifest, config.FormatCSV, config.FormatMarkdown}

	var console bytes.Buffer
	res, err := newTestService().Run(context.Background(), EstimationRequest{Config: cfg, Console: &console})
	require.NoError(t, err)

	require.Len(t, res.Table.Results, 2)
	for _, r := range res.Table.Results {
		assert.Equal(t, 29, r.J, "one listed subject removed")
		assert.Equal(t, 29*gen.GamesPerSubject, r.N)
		assert.Equal(t, 1, r.Summary.Excluded)
		assert.True(t, r.Fit.Converged)
		assert.Equal(t, res.RunID, r.RunID)
	}
	assert.Equal(t, core.SampleID("session1"), res.Table.Results[0].Sample)
	require.Len(t, res.Table.Comparisons, 5)
	assert.Nil(t, res.Table.Joint)

	// manifest written last and lists the other outputs
	require.Len(t, res.Outputs, 3)
	assert.Equal(t, filepath.Join(cfg.Output.Dir, "social_preferences.json"), res.Outputs[2])
	for _, p := range res.Outputs {
		assert.FileExists(t, p)
	}
	require.NoError(t, res.Manifest.Validate())
	require.Len(t, res.Manifest.Samples, 2)
	// both sessions hold the same subjects
	assert.Equal(t, res.Manifest.Samples[0].CohortHash, res.Manifest.Samples[1].CohortHash)
	assert.False(t, res.Manifest.CompletedAt.IsZero())

	assert.Contains(t, console.String(), "session1:")
	assert.Contains(t, console.String(), "equality across samples")
}

func TestRun_ReproducibleFromFixedStart(t *testing.T) {
	dir := t.TempDir()
	path, _ := writeSocialSessions(t, dir)

	cfg := config.DefaultSocial()
	cfg.Data.Path = path
	cfg.Data.Exclusions = ""
	cfg.Samples = cfg.Samples[:1]
	cfg.Output.Dir = filepath.Join(dir, "results")
	cfg.Output.Formats = []string{config.FormatCSV}

	svc := newTestService()
	first, err := svc.Run(context.Background(), EstimationRequest{Config: cfg})
	require.NoError(t, err)
	second, err := svc.Run(context.Background(), EstimationRequest{Config: cfg})
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	for i, e := range first.Table.Results[0].Estimates {
		assert.InDelta(t, e.Value, second.Table.Results[0].Estimates[i].Value, 1e-2)
	}
	assert.Equal(t, first.Manifest.Samples[0].Fingerprint.Fingerprint, second.Manifest.Samples[0].Fingerprint.Fingerprint)
}

func TestCompare_JointTest(t *testing.T) {
	dir := t.TempDir()
	path, _ := writeSocialSessions(t, dir)

	cfg := config.DefaultSocial()
	cfg.Data.Path = path
	cfg.Data.Exclusions = ""
	cfg.Output.Dir = filepath.Join(dir, "results")
	cfg.Output.Formats = []string{config.FormatCSV}

	res, err := newTestService().Compare(context.Background(), EstimationRequest{Config: cfg})
	require.NoError(t, err)
	require.NotNil(t, res.Table.Joint)

	joint := res.Table.Joint
	assert.Equal(t, 5, joint.DF)
	assert.GreaterOrEqual(t, joint.Statistic, 0.0)
	assert.Equal(t, res.Table.Results[0].N+res.Table.Results[1].N, joint.Pooled.N)
	assert.GreaterOrEqual(t, joint.P, 0.0)
	assert.LessOrEqual(t, joint.P, 1.0)

	cfg.Samples = cfg.Samples[:1]
	_, err = newTestService().Compare(context.Background(), EstimationRequest{Config: cfg})
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestRun_EffortDropBonus(t *testing.T) {
	if testing.Short() {
		t.Skip("simplex fit over 7 parameters")
	}
	dir := t.TempDir()
	gen := testkit.DefaultEffortConfig()
	gen.Subjects = 24
	gen.BonusShare = 0.2
	obs := testkit.NewEffortGenerator(gen).Generate()
	path := testkit.WriteCSV(t, dir, "effort.csv", testkit.EffortRecords(obs))

	kept := 0
	for _, o := range obs {
		if !o.BonusOffered {
			kept++
		}
	}

	cfg := config.DefaultEffort()
	cfg.Data.Path = path
	cfg.Data.Exclusions = ""
	cfg.Data.DropBonusOffered = true
	cfg.Output.Dir = filepath.Join(dir, "results")
	cfg.Output.Formats = []string{config.FormatCSV, config.FormatXLSX}

	res, err := newTestService().Run(context.Background(), EstimationRequest{Config: cfg})
	require.NoError(t, err)
	require.Len(t, res.Table.Results, 1)
	assert.Equal(t, kept, res.Table.Results[0].N)
	assert.Empty(t, res.Table.Comparisons)
}

func TestRun_FailsFastOnBadData(t *testing.T) {
	dir := t.TempDir()
	records := testkit.SocialRecords(testkit.NewSocialGenerator(testkit.DefaultSocialConfig()).Generate()[:10])
	records[4][2] = "" // blank s_x
	path := testkit.WriteCSV(t, dir, "bad.csv", records)

	cfg := config.DefaultSocial()
	cfg.Data.Path = path
	cfg.Data.Exclusions = ""
	cfg.Output.Dir = filepath.Join(dir, "results")

	_, err := newTestService().Run(context.Background(), EstimationRequest{Config: cfg})
	require.Error(t, err)
	assert.Equal(t, errors.CodeDataInvalid, errors.GetCode(err))
	assert.ErrorIs(t, err, core.ErrInvalidCell)
	assert.Contains(t, err.Error(), dataset.ColBehindX)

	_, statErr := os.Stat(cfg.Output.Dir)
	assert.True(t, os.IsNotExist(statErr), "no outputs after a failed run")
}

func TestRun_SessionWithoutColumn(t *testing.T) {
	dir := t.TempDir()
	records := testkit.SocialRecords(testkit.NewSocialGenerator(testkit.DefaultSocialConfig()).Generate()[:50])
	for i := range records {
		records[i] = records[i][1:] // drop session
	}
	path := testkit.WriteCSV(t, dir, "nosession.csv", records)

	cfg := config.DefaultSocial()
	cfg.Data.Path = path
	cfg.Data.Exclusions = ""

	_, err := newTestService().Run(context.Background(), EstimationRequest{Config: cfg})
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestRun_MissingFiles(t *testing.T) {
	dir := t.TempDir()
	path, _ := writeSocialSessions(t, dir)

	cfg := config.DefaultSocial()
	cfg.Data.Path = filepath.Join(dir, "absent.csv")
	cfg.Data.Exclusions = ""
	_, err := newTestService().Run(context.Background(), EstimationRequest{Config: cfg})
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	cfg.Data.Path = path
	cfg.Data.Exclusions = filepath.Join(dir, "absent_exclusions.csv")
	_, err = newTestService().Run(context.Background(), EstimationRequest{Config: cfg})
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

func TestPublished_SocialSessionOne(t *testing.T) {
	dir := testkit.DataDir(t)
	cfg := config.DefaultSocial()
	cfg.Data.Path = filepath.Join(dir, "social_preferences.csv")
	cfg.Data.Exclusions = filepath.Join(dir, "social_exclusions.csv")
	cfg.Samples = cfg.Samples[:1]
	cfg.Output.Dir = t.TempDir()

	res, err := newTestService().Run(context.Background(), EstimationRequest{Config: cfg})
	require.NoError(t, err)
	r := res.Table.Results[0]

	assert.Equal(t, 160, r.J)
	assert.Equal(t, 18720, r.N)
	assert.InDelta(t, -5472.31, r.LogLik, 0.5)
	want := map[string]float64{"alpha": 0.083, "beta": 0.261, "gamma": 0.072, "delta": -0.042, "sigma": 0.016}
	for name, v := range want {
		e, ok := r.Estimate(name)
		require.True(t, ok)
		assert.InDelta(t, v, e.Value, 0.01, name)
	}
}

func TestPublished_Effort(t *testing.T) {
	dir := testkit.DataDir(t)
	cfg := config.DefaultEffort()
	cfg.Data.Path = filepath.Join(dir, "effort_choices.dta")
	cfg.Data.Exclusions = filepath.Join(dir, "effort_exclusions.csv")
	cfg.Output.Dir = t.TempDir()

	res, err := newTestService().Run(context.Background(), EstimationRequest{Config: cfg})
	require.NoError(t, err)
	r := res.Table.Results[0]

	assert.Equal(t, 72, r.J)
	assert.Equal(t, 8049, r.N)
	assert.InDelta(t, -28412, r.LogLik, 1.0)
	want := map[string]float64{
		"beta": 0.835, "beta_h": 0.999, "delta": 1.003, "gamma": 2.145,
		"phi": 723.97, "alpha": 7.307, "sigma": 42.63,
	}
	for name, v := range want {
		e, ok := r.Estimate(name)
		require.True(t, ok)
		assert.InDelta(t, v, e.Value, 1.0, name)
	}
}
