package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sahana/eden/internal/importer"
	"github.com/sahana/eden/internal/models"
	"github.com/sahana/eden/internal/project"
	"github.com/sahana/eden/internal/utils"
)

type ProjectRequest struct {
	models.Project

	HazardIDs []uint `json:"hazard_ids"`
	ThemeIDs  []uint `json:"theme_ids"`
}

type ProjectResponse struct {
	models.Project

	HFARepresent     string `json:"hfa_represent"`
	HazardsRepresent string `json:"hazards_represent"`
	ThemesRepresent  string `json:"themes_represent"`
}

type ProjectOrganisationResponse struct {
	models.ProjectOrganisation

	OrganisationName string `json:"organisation_name"`
	RoleRepresent    string `json:"role_represent"`
}

type ActivityResponse struct {
	models.Activity

	ProjectName      string            `json:"project_name"`
	LeadOrganisation string            `json:"lead_organisation"`
	Locations        map[string]string `json:"locations"`
}

type BeneficiaryResponse struct {
	models.Beneficiary

	TypeRepresent string `json:"bnf_type_represent"`
}

func (h *Handler) CreateProject(ctx *gin.Context) {
	var body ProjectRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	p := body.Project
	p.ID = 0

	if err := h.saveProject(ctx, &p, body); err != nil {
		h.fail(ctx, err, "failed to create project")
		return
	}

	h.created(ctx, project.ResourceProject, p)
}

func (h *Handler) ListProjects(ctx *gin.Context) {
	var projects []models.Project

	if err := h.db(ctx).Order("name").Find(&projects).Error; err != nil {
		h.fail(ctx, err, "failed to list projects")
		return
	}

	h.list(ctx, project.ResourceProject, projects, len(projects))
}

func (h *Handler) GetProject(ctx *gin.Context) {
	p, ok := h.loadProject(ctx)
	if !ok {
		return
	}

	tx := h.db(ctx)

	var hazardIDs, themeIDs []uint
	if err := tx.Table("project_project_hazards").Where("project_id = ?", p.ID).Pluck("hazard_id", &hazardIDs).Error; err != nil {
		h.fail(ctx, err, "failed to read project hazards")
		return
	}
	if err := tx.Table("project_project_themes").Where("project_id = ?", p.ID).Pluck("theme_id", &themeIDs).Error; err != nil {
		h.fail(ctx, err, "failed to read project themes")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": ProjectResponse{
		Project:          *p,
		HFARepresent:     project.HFARepresent(p.HFA),
		HazardsRepresent: project.MultiRefRepresent(tx, &models.Hazard{}, hazardIDs),
		ThemesRepresent:  project.MultiRefRepresent(tx, &models.Theme{}, themeIDs),
	}})
}

func (h *Handler) UpdateProject(ctx *gin.Context) {
	p, ok := h.loadProject(ctx)
	if !ok {
		return
	}

	body := ProjectRequest{Project: *p}

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	updated := body.Project
	updated.ID = p.ID

	if err := h.saveProject(ctx, &updated, body); err != nil {
		h.fail(ctx, err, "failed to update project")
		return
	}

	h.modified(ctx, project.ResourceProject, updated)
}

func (h *Handler) DeleteProject(ctx *gin.Context) {
	p, ok := h.loadProject(ctx)
	if !ok {
		return
	}

	if err := h.db(ctx).Delete(p).Error; err != nil {
		h.fail(ctx, err, "failed to delete project")
		return
	}

	h.deleted(ctx, project.ResourceProject)
}

// saveProject writes p and, when the request lists them, replaces its
// hazards and themes. Hazards and HFA priorities are only kept in DRR mode.
func (h *Handler) saveProject(ctx *gin.Context, p *models.Project, body ProjectRequest) error {
	p.Hazards = nil
	p.Themes = nil
	if !h.Settings.DRR {
		p.HFA = nil
		body.HazardIDs = nil
	}

	return h.db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := project.SaveProject(tx, p); err != nil {
			return err
		}

		if body.HazardIDs != nil {
			var hazards []models.Hazard
			if len(body.HazardIDs) > 0 {
				if err := tx.Find(&hazards, body.HazardIDs).Error; err != nil {
					return err
				}
			}
			if err := tx.Model(p).Association("Hazards").Replace(hazards); err != nil {
				return err
			}
		}

		if body.ThemeIDs != nil {
			var themes []models.Theme
			if len(body.ThemeIDs) > 0 {
				if err := tx.Find(&themes, body.ThemeIDs).Error; err != nil {
					return err
				}
			}
			if err := tx.Model(p).Association("Themes").Replace(themes); err != nil {
				return err
			}
		}

		return nil
	})
}

// loadProject reads the project named by the :id parameter, writing the
// error response when it cannot.
func (h *Handler) loadProject(ctx *gin.Context) (*models.Project, bool) {
	projectID, err := utils.GetID(ctx, "id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	var p models.Project

	if err := h.db(ctx).First(&p, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			h.fail(ctx, err, "failed to retrieve project")
		}
		return nil, false
	}

	return &p, true
}

func (h *Handler) AddProjectOrganisation(ctx *gin.Context) {
	p, ok := h.loadProject(ctx)
	if !ok {
		return
	}

	var po models.ProjectOrganisation

	if err := ctx.ShouldBindJSON(&po); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	po.ID = 0
	po.ProjectID = p.ID

	if err := h.Projects.SaveProjectOrganisation(ctx.Request.Context(), &po); err != nil {
		h.fail(ctx, err, "failed to add project organisation")
		return
	}

	h.created(ctx, project.ResourceProjectOrganisation, po)
}

func (h *Handler) ListProjectOrganisations(ctx *gin.Context) {
	p, ok := h.loadProject(ctx)
	if !ok {
		return
	}

	var links []models.ProjectOrganisation

	if err := h.db(ctx).Preload("Organisation").Where("project_id = ?", p.ID).Order("id").Find(&links).Error; err != nil {
		h.fail(ctx, err, "failed to list project organisations")
		return
	}

	response := make([]ProjectOrganisationResponse, 0, len(links))
	for _, link := range links {
		response = append(response, ProjectOrganisationResponse{
			ProjectOrganisation: link,
			OrganisationName:    link.Organisation.Name,
			RoleRepresent:       project.OrganisationRoleRepresent(link.Role),
		})
	}

	h.list(ctx, project.ResourceProjectOrganisation, response, len(response))
}

func (h *Handler) RemoveProjectOrganisation(ctx *gin.Context) {
	p, ok := h.loadProject(ctx)
	if !ok {
		return
	}

	linkID, err := utils.GetID(ctx, "link_id")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.db(ctx).Where("project_id = ?", p.ID).Delete(&models.ProjectOrganisation{}, linkID)
	if result.Error != nil {
		h.fail(ctx, result.Error, "failed to remove project organisation")
		return
	}
	if result.RowsAffected == 0 {
		h.fail(ctx, gorm.ErrRecordNotFound, "")
		return
	}

	h.deleted(ctx, project.ResourceProjectOrganisation)
}

func (h *Handler) CreateActivity(ctx *gin.Context) {
	p, ok := h.loadProject(ctx)
	if !ok {
		return
	}

	var a models.Activity

	if err := ctx.ShouldBindJSON(&a); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	a.ID = 0
	a.ProjectID = &p.ID
	a.TimeActual = 0

	if err := h.Projects.SaveActivity(ctx.Request.Context(), &a); err != nil {
		h.fail(ctx, err, "failed to create activity")
		return
	}

	h.created(ctx, project.ResourceActivity, a)
}

func (h *Handler) ListActivities(ctx *gin.Context) {
	p, ok := h.loadProject(ctx)
	if !ok {
		return
	}

	tx := h.db(ctx)

	var activities []models.Activity

	if err := tx.Where("project_id = ?", p.ID).Order("id").Find(&activities).Error; err != nil {
		h.fail(ctx, err, "failed to list activities")
		return
	}

	response := make([]ActivityResponse, 0, len(activities))
	for i := range activities {
		a := &activities[i]

		lead, err := project.ActivityLeadOrganisation(tx, a)
		if err != nil {
			h.fail(ctx, err, "failed to read lead organisation")
			return
		}

		locations, err := project.LocationLevels(tx, a.LocationID)
		if err != nil {
			h.fail(ctx, err, "failed to read activity location")
			return
		}

		response = append(response, ActivityResponse{
			Activity:         *a,
			ProjectName:      project.ProjectRepresent(tx, a.ProjectID),
			LeadOrganisation: lead,
			Locations:        locations,
		})
	}

	h.list(ctx, project.ResourceActivity, response, len(response))
}

func (h *Handler) UpdateActivity(ctx *gin.Context) {
	activityID, err := utils.GetID(ctx, "id")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var a models.Activity
	if err := h.db(ctx).First(&a, activityID).Error; err != nil {
		h.fail(ctx, err, "failed to retrieve activity")
		return
	}

	timeActual := a.TimeActual
	if err := ctx.ShouldBindJSON(&a); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	a.ID = activityID
	a.TimeActual = timeActual

	if err := h.Projects.SaveActivity(ctx.Request.Context(), &a); err != nil {
		h.fail(ctx, err, "failed to update activity")
		return
	}

	h.modified(ctx, project.ResourceActivity, a)
}

func (h *Handler) DeleteActivity(ctx *gin.Context) {
	activityID, err := utils.GetID(ctx, "id")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.db(ctx).Delete(&models.Activity{}, activityID)
	if result.Error != nil {
		h.fail(ctx, result.Error, "failed to delete activity")
		return
	}
	if result.RowsAffected == 0 {
		h.fail(ctx, gorm.ErrRecordNotFound, "")
		return
	}

	h.deleted(ctx, project.ResourceActivity)
}

func (h *Handler) CreateMilestone(ctx *gin.Context) {
	p, ok := h.loadProject(ctx)
	if !ok {
		return
	}

	var m models.Milestone

	if err := ctx.ShouldBindJSON(&m); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	m.ID = 0
	m.ProjectID = p.ID

	if err := h.Projects.SaveMilestone(ctx.Request.Context(), &m); err != nil {
		h.fail(ctx, err, "failed to create milestone")
		return
	}

	h.created(ctx, project.ResourceMilestone, m)
}

func (h *Handler) ListMilestones(ctx *gin.Context) {
	p, ok := h.loadProject(ctx)
	if !ok {
		return
	}

	var milestones []models.Milestone

	if err := h.db(ctx).Where("project_id = ?", p.ID).Order("date").Find(&milestones).Error; err != nil {
		h.fail(ctx, err, "failed to list milestones")
		return
	}

	h.list(ctx, project.ResourceMilestone, milestones, len(milestones))
}

func (h *Handler) CreateBeneficiary(ctx *gin.Context) {
	p, ok := h.loadProject(ctx)
	if !ok {
		return
	}

	var b models.Beneficiary

	if err := ctx.ShouldBindJSON(&b); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	b.ID = 0
	b.ProjectID = &p.ID

	if err := h.Projects.SaveBeneficiary(ctx.Request.Context(), &b); err != nil {
		h.fail(ctx, err, "failed to create beneficiary")
		return
	}

	h.created(ctx, project.ResourceBeneficiary, b)
}

func (h *Handler) ListBeneficiaries(ctx *gin.Context) {
	p, ok := h.loadProject(ctx)
	if !ok {
		return
	}

	tx := h.db(ctx)

	var beneficiaries []models.Beneficiary

	if err := tx.Where("project_id = ?", p.ID).Order("id").Find(&beneficiaries).Error; err != nil {
		h.fail(ctx, err, "failed to list beneficiaries")
		return
	}

	response := make([]BeneficiaryResponse, 0, len(beneficiaries))
	for _, b := range beneficiaries {
		response = append(response, BeneficiaryResponse{
			Beneficiary:   b,
			TypeRepresent: project.BeneficiaryTypeRepresent(tx, b.TypeID),
		})
	}

	h.list(ctx, project.ResourceBeneficiary, response, len(response))
}

func (h *Handler) Import(ctx *gin.Context) {
	resource := ctx.Param("resource")

	if !h.Importer.Supports(resource) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Resource cannot be imported"})
		return
	}

	records, err := importer.Parse(ctx.Request.Body)
	if err != nil {
		h.fail(ctx, err, "failed to parse import")
		return
	}

	results, err := h.Importer.Import(ctx.Request.Context(), resource, records)
	if err != nil {
		h.fail(ctx, err, "failed to import records")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": results})
}
