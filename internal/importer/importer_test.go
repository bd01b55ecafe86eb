package importer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahana/eden/internal/models"
	"github.com/sahana/eden/internal/project"
	"github.com/sahana/eden/internal/testutil"
	"github.com/sahana/eden/internal/types"
)

func TestParseNormalizesNumbers(t *testing.T) {
	records, err := Parse(strings.NewReader(`[{"project_id": 3, "budget": 12.5, "hfa": [1, 2]}]`))
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, int64(3), records[0]["project_id"])
	assert.Equal(t, 12.5, records[0]["budget"])
	assert.Equal(t, []interface{}{int64(1), int64(2)}, records[0]["hfa"])

	_, err = Parse(strings.NewReader(`{"name": "not an array"}`))
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestImportCreatesThenUpdates(t *testing.T) {
	db := testutil.NewDB(t)
	imp := New(db, false, nil)
	ctx := context.Background()

	records, err := Parse(strings.NewReader(`[
		{"name": "Flood Response", "budget": 1000, "start_date": "2024-03-01", "hfa": [1, 5]},
		{"name": "Shelter", "code": "SH"}
	]`))
	require.NoError(t, err)

	results, err := imp.Import(ctx, project.ResourceProject, records)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, types.MethodCreate, results[0].Method)
	assert.Equal(t, types.MethodCreate, results[1].Method)

	var flood models.Project
	require.NoError(t, db.First(&flood, results[0].ID).Error)
	assert.Equal(t, "Flood Response", flood.Code)
	require.NotNil(t, flood.Budget)
	assert.Equal(t, 1000.0, *flood.Budget)
	require.NotNil(t, flood.StartDate)
	assert.Equal(t, 2024, flood.StartDate.Year())
	assert.JSONEq(t, `[1, 5]`, string(flood.HFA))

	records, err = Parse(strings.NewReader(`[{"name": "flood response", "objectives": "Reach 500 households"}]`))
	require.NoError(t, err)

	results, err = imp.Import(ctx, project.ResourceProject, records)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, types.MethodUpdate, results[0].Method)
	assert.Equal(t, flood.ID, results[0].ID)

	require.NoError(t, db.First(&flood, flood.ID).Error)
	assert.Equal(t, "Reach 500 households", flood.Objectives)
	assert.Equal(t, 1000.0, *flood.Budget)

	var count int64
	db.Model(&models.Project{}).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestImportMatchesByUUID(t *testing.T) {
	db := testutil.NewDB(t)
	imp := New(db, false, nil)

	p := models.Project{Name: "Old Name"}
	require.NoError(t, db.Create(&p).Error)

	records := []map[string]interface{}{{"uuid": p.UUID, "name": "New Name"}}
	results, err := imp.Import(context.Background(), project.ResourceProject, records)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, types.MethodUpdate, results[0].Method)
	assert.Equal(t, p.ID, results[0].ID)

	require.NoError(t, db.First(&p, p.ID).Error)
	assert.Equal(t, "New Name", p.Name)
}

func TestImportRunsCallbacks(t *testing.T) {
	db := testutil.NewDB(t)
	imp := New(db, false, nil)
	ctx := context.Background()

	p := models.Project{Name: "Health"}
	require.NoError(t, db.Create(&p).Error)
	a := models.Activity{ProjectID: &p.ID, Name: "Clinic"}
	require.NoError(t, db.Create(&a).Error)
	bt := models.BeneficiaryType{Name: "Patients"}
	require.NoError(t, db.Create(&bt).Error)

	records := []map[string]interface{}{{"activity_id": int64(a.ID), "bnf_type": int64(bt.ID), "number": int64(40)}}
	results, err := imp.Import(ctx, project.ResourceBeneficiary, records)
	require.NoError(t, err)

	var b models.Beneficiary
	require.NoError(t, db.First(&b, results[0].ID).Error)
	require.NotNil(t, b.ProjectID)
	assert.Equal(t, p.ID, *b.ProjectID)

	// same type and activity updates the existing row
	records = []map[string]interface{}{{"activity_id": int64(a.ID), "bnf_type": int64(bt.ID), "number": int64(55)}}
	results, err = imp.Import(ctx, project.ResourceBeneficiary, records)
	require.NoError(t, err)
	assert.Equal(t, types.MethodUpdate, results[0].Method)
	assert.Equal(t, b.ID, results[0].ID)
}

func TestImportRollsBackOnInvalidRecord(t *testing.T) {
	db := testutil.NewDB(t)
	imp := New(db, false, nil)

	org := models.Organisation{Name: "Lead"}
	other := models.Organisation{Name: "Other"}
	p := models.Project{Name: "Roads"}
	require.NoError(t, db.Create(&org).Error)
	require.NoError(t, db.Create(&other).Error)
	require.NoError(t, db.Create(&p).Error)

	records := []map[string]interface{}{
		{"project_id": int64(p.ID), "organisation_id": int64(org.ID), "role": int64(types.LeadRole)},
		{"project_id": int64(p.ID), "organisation_id": int64(other.ID), "role": int64(types.LeadRole)},
	}
	_, err := imp.Import(context.Background(), project.ResourceProjectOrganisation, records)
	require.Error(t, err)
	assert.ErrorIs(t, err, project.ErrLeadRoleTaken)

	var count int64
	db.Model(&models.ProjectOrganisation{}).Count(&count)
	assert.Zero(t, count)
}

func TestImportRejectsUnknownResourceAndBadData(t *testing.T) {
	db := testutil.NewDB(t)
	imp := New(db, false, nil)

	assert.False(t, imp.Supports(project.ResourceTask))
	_, err := imp.Import(context.Background(), project.ResourceTask, nil)
	assert.ErrorIs(t, err, ErrUnknownResource)

	_, err = imp.Import(context.Background(), project.ResourceProject, []map[string]interface{}{{"name": "X", "start_date": "next week"}})
	assert.ErrorIs(t, err, ErrInvalidRecord)
}
