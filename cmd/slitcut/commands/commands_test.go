package commands

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/SlitCut/internal/model"
	"github.com/piwi3910/SlitCut/internal/project"
)

const ordersCSV = `label,grade,thickness,width,length,count
C100,Q235,2.5,166,9775,40
C160,Q235,2.5,285,7444,35
`

const pricesCSV = `start_width,unit_cost
1000,4240
1200,4190
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "json", true)
	log.Debug("probe", "k", 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "probe", entry["msg"])
	assert.Equal(t, "DEBUG", entry["level"])

	buf.Reset()
	newLogger(&buf, "text", false).Debug("hidden")
	assert.Empty(t, buf.String())
}

func TestSettingsFlagsApply(t *testing.T) {
	var f settingsFlags
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.register(fs)
	require.NoError(t, fs.Parse([]string{"--max-patterns=3", "--trim-tolerance=0", "--time-limit=5s"}))

	s := model.DefaultSettings()
	f.apply(fs, &s)

	assert.Equal(t, 3, s.MaxPatterns)
	require.NotNil(t, s.TrimTolerance)
	assert.Equal(t, 0.0, *s.TrimTolerance)
	assert.Equal(t, 5*time.Second, s.TimeLimit)
	assert.Equal(t, model.DefaultSettings().NodeLimit, s.NodeLimit, "unset flags keep the job value")
}

func TestLoadJob_FromCSV(t *testing.T) {
	appConfig = model.DefaultAppConfig()
	dir := t.TempDir()

	job, err := loadJob(inputFlags{
		orders: writeFile(t, dir, "orders.csv", ordersCSV),
		prices: writeFile(t, dir, "prices.csv", pricesCSV),
		min:    1000,
		max:    1300,
		step:   1,
	})
	require.NoError(t, err)

	assert.Equal(t, "orders", job.Name)
	assert.Len(t, job.Orders, 2)
	assert.Len(t, job.Prices, 2)
	assert.Equal(t, 1000.0, job.Domain.Min)
	assert.Equal(t, 1300.0, job.Domain.Max)
	assert.Equal(t, appConfig.DefaultMaxPatterns, job.Settings.MaxPatterns)
}

func TestLoadJob_WidthsOverrideJobFile(t *testing.T) {
	dir := t.TempDir()
	saved := model.NewJob()
	saved.Domain = model.RangeDomain(1000, 1300)
	saved.Prices = []model.PriceBreak{{StartWidth: 1000, UnitCost: 1}}
	path := filepath.Join(dir, "job"+project.JobExtension)
	require.NoError(t, project.SaveJob(path, saved))

	job, err := loadJob(inputFlags{job: path, widths: []float64{1100, 1250}})
	require.NoError(t, err)
	assert.Equal(t, []float64{1100, 1250}, job.Domain.List)
	assert.Equal(t, saved.ID, job.ID)
}

func TestLoadJob_Errors(t *testing.T) {
	appConfig = model.DefaultAppConfig()
	dir := t.TempDir()
	orders := writeFile(t, dir, "orders.csv", ordersCSV)

	_, err := loadJob(inputFlags{})
	assert.ErrorIs(t, err, errNoInput)

	_, err = loadJob(inputFlags{orders: orders, prices: writeFile(t, dir, "prices.csv", pricesCSV)})
	assert.ErrorIs(t, err, model.ErrInvalidDomain)

	_, err = loadJob(inputFlags{orders: orders, max: 1300, min: 1000})
	assert.ErrorIs(t, err, model.ErrInvalidPriceTable)

	bad := writeFile(t, dir, "bad.csv", "label,width,length,count\nA,abc,100,1\n")
	_, err = loadJob(inputFlags{orders: bad, max: 1300, min: 1000})
	assert.ErrorContains(t, err, "import error")
}

func TestSolveCommand(t *testing.T) {
	dir := t.TempDir()
	orders := writeFile(t, dir, "orders.csv", ordersCSV)
	prices := writeFile(t, dir, "prices.csv", pricesCSV)
	outJSON := filepath.Join(dir, "results.json")
	outPDF := filepath.Join(dir, "plan.pdf")
	outDXF := filepath.Join(dir, "knives.dxf")
	jobPath := filepath.Join(dir, "saved"+project.JobExtension)
	cfgPath := filepath.Join(dir, "config.yaml")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs([]string{
		"--config", cfgPath,
		"solve",
		"--orders", orders,
		"--prices", prices,
		"--widths", "1000,1200",
		"--baseline-width", "1300",
		"--out-json", outJSON,
		"--out-pdf", outPDF,
		"--out-dxf", outDXF,
		"--save-job", jobPath,
	})
	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, out.String(), "Group Q235/2.5")
	for _, p := range []string{outJSON, outPDF, outDXF, jobPath} {
		info, err := os.Stat(p)
		require.NoError(t, err, p)
		assert.Positive(t, info.Size(), p)
	}

	var results []model.GroupResult
	data, err := os.ReadFile(outJSON)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &results))
	require.Len(t, results, 1)
	assert.Equal(t, model.StatusOptimal, results[0].Status)

	job, err := project.LoadJob(jobPath)
	require.NoError(t, err)
	assert.Len(t, job.Results, 1)

	cfg, err := project.LoadAppConfig(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, []string{jobPath}, cfg.RecentJobs)
}
