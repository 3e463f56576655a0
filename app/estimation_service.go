package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"sort"
	"time"

	"goreplicate/adapters/data"
	"goreplicate/adapters/models/effort"
	"goreplicate/adapters/models/social"
	"goreplicate/adapters/report"
	"goreplicate/domain/core"
	"goreplicate/domain/dataset"
	"goreplicate/domain/run"
	"goreplicate/domain/stats"
	"goreplicate/internal"
	"goreplicate/internal/config"
	"goreplicate/internal/errors"
	"goreplicate/internal/estimation"
	"goreplicate/ports"
)

// EstimationService runs the load -> filter -> fit -> variance -> tests ->
// report pipeline for one model configuration.
type EstimationService struct {
	tables      ports.TableReader
	exclusions  ports.ExclusionReader
	rngPort     ports.RNGPort
	log         *internal.Logger
	codeVersion string
}

// EstimationRequest defines the inputs of one run
type EstimationRequest struct {
	Config  *config.Config
	RunID   core.RunID // optional, generated if empty
	Console io.Writer  // optional, receives the printed summary
	Joint   bool       // also fit the pooled model and run the likelihood-ratio test
}

// EstimationResult contains the complete output of a run
type EstimationResult struct {
	RunID     core.RunID         `json:"run_id"`
	Table     *stats.ResultTable `json:"table"`
	Manifest  *run.RunManifest   `json:"manifest"`
	Outputs   []string           `json:"outputs"`
	RuntimeMs int64              `json:"runtime_ms"`
}

// NewEstimationService creates an estimation service
func NewEstimationService(tables ports.TableReader, exclusions ports.ExclusionReader, rngPort ports.RNGPort,
	log *internal.Logger, codeVersion string) *EstimationService {
	if log == nil {
		log = internal.DefaultLogger
	}
	if codeVersion == "" {
		codeVersion = "dev"
	}
	return &EstimationService{
		tables:      tables,
		exclusions:  exclusions,
		rngPort:     rngPort,
		log:         log,
		codeVersion: codeVersion,
	}
}

// sample is one filtered estimation sample ready for fitting
type sample struct {
	id       core.SampleID
	frame    *dataset.RawFrame
	social   []dataset.SocialChoice
	effort   []dataset.EffortChoice
	excluded int
	cohort   core.CohortHash
}

// Run executes the pipeline for every configured sample and writes the
// configured outputs. Any failure aborts the run.
func (s *EstimationService) Run(ctx context.Context, req EstimationRequest) (*EstimationResult, error) {
	startTime := time.Now()
	cfg := req.Config
	if cfg == nil {
		return nil, errors.ConfigInvalid("no configuration")
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	runID := req.RunID
	if runID == "" {
		runID = core.RunID(core.NewID())
	}
	s.log.Info("run %s: %s model, %d sample(s)", runID, cfg.Model, len(cfg.Samples))

	excluded, err := s.readExclusions(ctx, cfg.Data.Exclusions)
	if err != nil {
		return nil, err
	}

	samples, err := s.prepareSamples(ctx, cfg, excluded)
	if err != nil {
		return nil, err
	}

	estimator, err := s.newEstimator(cfg)
	if err != nil {
		return nil, err
	}

	manifest := run.NewRunManifest(runID, core.ModelName(cfg.Model), cfg.Data.Path, combinedDataHash(samples),
		cfg.Data.Exclusions, cfg.Optimizer.Seed, cfg.Optimizer.Method, s.codeVersion)

	table := &stats.ResultTable{
		Model:  core.ModelName(cfg.Model),
		Params: cfg.ParamNames(),
	}
	for _, smp := range samples {
		res, err := s.fit(ctx, cfg, estimator, smp.id, smp.social, smp.effort)
		if err != nil {
			return nil, errors.Wrapf(err, "sample %s", smp.id)
		}
		res.RunID = runID
		res.Summary.Excluded = smp.excluded
		table.Results = append(table.Results, res)
		manifest.Samples = append(manifest.Samples, s.sampleRecord(cfg, manifest, smp, res))
	}

	if len(table.Results) == 2 {
		table.Comparisons = estimation.Compare(table.Results[0], table.Results[1])
	}
	if req.Joint && len(samples) > 1 {
		joint, err := s.jointTest(ctx, cfg, estimator, samples, table.Results)
		if err != nil {
			return nil, err
		}
		joint.Pooled.RunID = runID
		table.Joint = joint
	}

	outputs, err := s.writeOutputs(ctx, cfg, table, manifest)
	if err != nil {
		return nil, err
	}

	if req.Console != nil {
		if err := report.PrintConsole(req.Console, table, cfg.Output.Decimals); err != nil {
			return nil, errors.OutputFailed("console", err)
		}
	}

	runtime := time.Since(startTime)
	s.log.Info("run %s completed in %s", runID, runtime.Round(time.Millisecond))
	return &EstimationResult{
		RunID:     runID,
		Table:     table,
		Manifest:  manifest,
		Outputs:   outputs,
		RuntimeMs: runtime.Milliseconds(),
	}, nil
}

// Compare runs exactly two samples, reports the per-parameter equality
// tests and the joint likelihood-ratio test.
func (s *EstimationService) Compare(ctx context.Context, req EstimationRequest) (*EstimationResult, error) {
	if req.Config == nil || len(req.Config.Samples) != 2 {
		return nil, errors.ConfigInvalid("compare needs exactly two samples")
	}
	req.Joint = true
	return s.Run(ctx, req)
}

func (s *EstimationService) readExclusions(ctx context.Context, path string) ([]core.SubjectID, error) {
	if path == "" {
		return nil, nil
	}
	ids, err := s.exclusions.ReadExclusions(ctx, path)
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, errors.NotFound(fmt.Sprintf("exclusion list %s", path), err)
	}
	if err != nil {
		return nil, errors.DataInvalid(fmt.Sprintf("exclusion list %s", path), err)
	}
	s.log.Info("excluding %d subject(s) listed in %s", len(ids), path)
	return ids, nil
}

// prepareSamples loads each distinct file once, decodes it and applies the
// exclusion list, session selection and bonus filter.
func (s *EstimationService) prepareSamples(ctx context.Context, cfg *config.Config, excluded []core.SubjectID) ([]sample, error) {
	frames := make(map[string]*dataset.RawFrame)
	var out []sample
	for _, sc := range cfg.Samples {
		path := cfg.SamplePath(sc)
		frame, ok := frames[path]
		if !ok {
			var err error
			frame, err = s.tables.Read(ctx, path)
			if stderrors.Is(err, fs.ErrNotExist) {
				return nil, errors.NotFound(fmt.Sprintf("data file %s", path), err)
			}
			if err != nil {
				return nil, errors.DataInvalid(fmt.Sprintf("failed to load %s", path), err)
			}
			frames[path] = frame
		}

		smp := sample{id: core.SampleID(sc.Name), frame: frame}
		var subjects []core.SubjectID
		switch cfg.Model {
		case config.ModelSocial:
			if sc.Session != 0 && !frame.HasColumn(dataset.ColSession) {
				return nil, errors.ConfigInvalid(fmt.Sprintf("sample %s selects session %d but %s has no %s column",
					sc.Name, sc.Session, path, dataset.ColSession))
			}
			obs, err := data.DecodeSocial(frame)
			if err != nil {
				return nil, errors.DataInvalid("invalid social data", err)
			}
			obs = data.SelectSession(obs, sc.Session)
			obs, smp.excluded = data.ExcludeSubjects(obs, data.SocialSubject, excluded)
			smp.social = obs
			subjects = data.SubjectIDs(obs, data.SocialSubject)
		case config.ModelEffort:
			obs, err := data.DecodeEffort(frame)
			if err != nil {
				return nil, errors.DataInvalid("invalid effort data", err)
			}
			if cfg.Data.DropBonusOffered {
				obs = data.DropBonusOffered(obs)
			}
			obs, smp.excluded = data.ExcludeSubjects(obs, data.EffortSubject, excluded)
			smp.effort = obs
			subjects = data.SubjectIDs(obs, data.EffortSubject)
		}
		if len(subjects) == 0 {
			return nil, errors.DataInvalid(fmt.Sprintf("sample %s is empty after filtering", sc.Name), core.ErrEmptyDataset)
		}

		smp.cohort = core.ComputeCohortHash(distinct(subjects), idStrings(excluded))
		s.log.Info("sample %s: %d observations after filtering, %d listed subject(s) removed",
			sc.Name, len(subjects), smp.excluded)
		out = append(out, smp)
	}
	return out, nil
}

func (s *EstimationService) newEstimator(cfg *config.Config) (*estimation.Estimator, error) {
	opt, err := estimation.NewOptimizer(estimation.OptimizerSettings{
		Method:            cfg.Optimizer.Method,
		MaxIterations:     cfg.Optimizer.MaxIterations,
		MaxEvaluations:    cfg.Optimizer.MaxEvaluations,
		Tolerance:         cfg.Optimizer.Tolerance,
		GradientThreshold: cfg.Optimizer.GradientThreshold,
	}, s.log)
	if err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, err)
	}
	return estimation.NewEstimator(opt, s.rngPort, estimation.Settings{
		Starts:            cfg.Optimizer.Starts,
		Seed:              cfg.Optimizer.Seed,
		Workers:           cfg.Optimizer.Workers,
		AllowNonConverged: cfg.Optimizer.AllowNonConverged,
		SymmetryTolerance: cfg.Variance.SymmetryTolerance,
	}, s.log), nil
}

// buildModel pairs each model with its gradient provider: hand-derived
// scores for the logistic choice model, finite differences for the Tobit.
func buildModel(cfg *config.Config, socialObs []dataset.SocialChoice, effortObs []dataset.EffortChoice) (ports.Model, ports.GradientProvider, []float64, error) {
	switch cfg.Model {
	case config.ModelSocial:
		m, err := social.NewModel(socialObs, cfg.Variance.ClampEpsilon)
		if err != nil {
			return nil, nil, nil, err
		}
		return m, estimation.NewAnalyticGradient(m, cfg.Variance.Step), data.SocialOutcomes(socialObs), nil
	case config.ModelEffort:
		m, err := effort.NewModel(effortObs, cfg.Variance.ClampEpsilon)
		if err != nil {
			return nil, nil, nil, err
		}
		return m, estimation.NewNumericGradient(m, cfg.Variance.Step, cfg.Variance.HessianStep), data.EffortOutcomes(effortObs), nil
	}
	return nil, nil, nil, errors.ConfigInvalid(fmt.Sprintf("unknown model %q", cfg.Model))
}

func (s *EstimationService) fit(ctx context.Context, cfg *config.Config, estimator *estimation.Estimator,
	id core.SampleID, socialObs []dataset.SocialChoice, effortObs []dataset.EffortChoice) (*stats.Result, error) {
	model, grad, outcomes, err := buildModel(cfg, socialObs, effortObs)
	if err != nil {
		return nil, errors.DataInvalid("failed to build model", err)
	}
	summary, err := data.Summarize(model.Clusters(), outcomes, 0)
	if err != nil {
		return nil, errors.DataInvalid("failed to summarize sample", err)
	}

	res, err := estimator.Estimate(ctx, model, grad, cfg.Params)
	if err != nil {
		return nil, err
	}
	res.Sample = id
	res.Summary = summary
	s.log.Info("sample %s: log-likelihood %.2f, %d iterations, status %s",
		id, res.LogLik, res.Fit.Iterations, res.Fit.Status)
	return res, nil
}

// jointTest fits one parameter vector to all samples together and tests it
// against the separate fits: LR = 2 (sum LL_separate - LL_pooled), with
// K (samples - 1) degrees of freedom.
func (s *EstimationService) jointTest(ctx context.Context, cfg *config.Config, estimator *estimation.Estimator,
	samples []sample, results []*stats.Result) (*stats.JointTest, error) {
	var socialObs []dataset.SocialChoice
	var effortObs []dataset.EffortChoice
	for _, smp := range samples {
		socialObs = append(socialObs, smp.social...)
		effortObs = append(effortObs, smp.effort...)
	}
	pooled, err := s.fit(ctx, cfg, estimator, "pooled", socialObs, effortObs)
	if err != nil {
		return nil, errors.Wrap(err, "pooled fit failed")
	}

	separate := 0.0
	for _, r := range results {
		separate += r.LogLik
	}
	df := len(cfg.Params) * (len(results) - 1)
	lr, p := estimation.LikelihoodRatio(separate, pooled.LogLik, df)
	s.log.Info("joint test: LR=%.3f df=%d p=%.4f", lr, df, p)
	return &stats.JointTest{Pooled: pooled, Statistic: lr, DF: df, P: p}, nil
}

func (s *EstimationService) sampleRecord(cfg *config.Config, manifest *run.RunManifest, smp sample, res *stats.Result) run.SampleRecord {
	return run.SampleRecord{
		Sample:       smp.id,
		CohortHash:   smp.cohort,
		Observations: res.N,
		Subjects:     res.J,
		Status:       res.Fit.Status,
		Converged:    res.Fit.Converged,
		LogLik:       res.LogLik,
		Fingerprint: run.NewRunFingerprint(manifest.Model, smp.frame.Hash, smp.cohort,
			res.Fit.Start, cfg.Optimizer.Seed, cfg.Optimizer.Method, s.codeVersion),
	}
}

// writeOutputs writes every configured format; the JSON manifest goes last
// so that it lists the other outputs.
func (s *EstimationService) writeOutputs(ctx context.Context, cfg *config.Config, table *stats.ResultTable, manifest *run.RunManifest) ([]string, error) {
	formats := append([]string(nil), cfg.Output.Formats...)
	sort.SliceStable(formats, func(i, j int) bool {
		return formats[i] != config.FormatManifest && formats[j] == config.FormatManifest
	})

	writers, err := report.NewWriters(formats, report.Options{
		Dir:      cfg.Output.Dir,
		Basename: cfg.Output.Basename,
		Decimals: cfg.Output.Decimals,
	})
	if err != nil {
		return nil, err
	}

	for _, w := range writers {
		if w.Format() == config.FormatManifest {
			manifest.CompletedAt = core.Now()
		}
		path, err := w.Write(ctx, table, manifest)
		if err != nil {
			return nil, err
		}
		manifest.Outputs = append(manifest.Outputs, path)
		s.log.Info("wrote %s", path)
	}
	if manifest.CompletedAt.IsZero() {
		manifest.CompletedAt = core.Now()
	}
	return manifest.Outputs, nil
}

// combinedDataHash is the hash of the single input file, or a hash over the
// per-file hashes when samples come from several files.
func combinedDataHash(samples []sample) core.DataHash {
	seen := make(map[core.DataHash]bool)
	var hashes []string
	for _, smp := range samples {
		if !seen[smp.frame.Hash] {
			seen[smp.frame.Hash] = true
			hashes = append(hashes, smp.frame.Hash.String())
		}
	}
	if len(hashes) == 1 {
		return core.DataHash(hashes[0])
	}
	sort.Strings(hashes)
	var joined []byte
	for _, h := range hashes {
		joined = append(joined, h...)
	}
	return core.NewDataHash(joined)
}

func distinct(ids []core.SubjectID) []string {
	seen := make(map[core.SubjectID]bool)
	var out []string
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id.String())
		}
	}
	return out
}

func idStrings(ids []core.SubjectID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
