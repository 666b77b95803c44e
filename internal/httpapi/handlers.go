package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alexanderramin/appraise/internal/domain"
	"github.com/alexanderramin/appraise/internal/editor"
	"github.com/alexanderramin/appraise/internal/importer"
	"github.com/alexanderramin/appraise/internal/service"
)

const dateLayout = "2006-01-02"

type createRequest struct {
	TemplateType  string `json:"templateType"`
	EffectiveDate string `json:"effectiveDate"`
	PropertyID    string `json:"propertyId"`
	PropertyType  string `json:"propertyType"`
	Status        string `json:"status"`
}

type appraisalView struct {
	ID                   string                        `json:"id"`
	TemplateType         domain.TemplateType           `json:"templateType"`
	EffectiveDate        string                        `json:"effectiveDate"`
	CompletionPercentage int                           `json:"completionPercentage"`
	Status               domain.AppraisalStatus        `json:"status"`
	PropertyID           *string                       `json:"propertyId,omitempty"`
	PropertyType         domain.PropertyClass          `json:"propertyType"`
	Sections             domain.SectionMap             `json:"sections"`
	Adjustments          *domain.AdjustmentDocument    `json:"adjustments,omitempty"`
	EffectiveAge         *domain.EffectiveAgeWorksheet `json:"effectiveAge,omitempty"`
	CreatedAt            time.Time                     `json:"createdAt"`
	UpdatedAt            time.Time                     `json:"updatedAt"`
}

func viewOf(a *domain.Appraisal) appraisalView {
	return appraisalView{
		ID:                   a.ID,
		TemplateType:         a.TemplateType,
		EffectiveDate:        a.EffectiveDate.Format(dateLayout),
		CompletionPercentage: a.CompletionPercentage,
		Status:               a.Status,
		PropertyID:           a.PropertyID,
		PropertyType:         a.EffectivePropertyClass(),
		Sections:             a.Sections,
		Adjustments:          a.Adjustments,
		EffectiveAge:         a.EffectiveAge,
		CreatedAt:            a.CreatedAt,
		UpdatedAt:            a.UpdatedAt,
	}
}

type sessionResponse struct {
	Appraisal        appraisalView `json:"appraisal"`
	RequiredSections []string      `json:"requiredSections"`
	Status           editor.Status `json:"status"`
}

type syncResponse struct {
	Target    string   `json:"target"`
	Reason    string   `json:"reason"`
	Matched   int      `json:"matched"`
	Unmatched []string `json:"unmatched,omitempty"`
}

type saveResponse struct {
	Status editor.Status `json:"status"`
	Error  string        `json:"error,omitempty"`
}

func (s *Server) listTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, s.appraisals.Templates())
}

func (s *Server) createAppraisal(c *gin.Context) {
	var req createRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}
	date, err := time.Parse(dateLayout, req.EffectiveDate)
	if err != nil {
		writeError(c, errors.Join(errBadRequest, fmt.Errorf("effectiveDate must be YYYY-MM-DD: %w", err)))
		return
	}
	a, err := s.appraisals.Create(c.Request.Context(), service.CreateAppraisalInput{
		TemplateType:  domain.TemplateType(req.TemplateType),
		EffectiveDate: date,
		PropertyID:    req.PropertyID,
		PropertyType:  domain.PropertyClass(req.PropertyType),
		Status:        domain.AppraisalStatus(req.Status),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, viewOf(a))
}

func (s *Server) listAppraisals(c *gin.Context) {
	list, err := s.appraisals.List(c.Request.Context(), service.ListFilter{
		Status:       domain.AppraisalStatus(c.Query("status")),
		TemplateType: domain.TemplateType(c.Query("template")),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]appraisalView, 0, len(list))
	for _, a := range list {
		out = append(out, viewOf(a))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getAppraisal(c *gin.Context) {
	if sess, err := s.sessions.Get(c.Param("id")); err == nil {
		c.JSON(http.StatusOK, viewOf(sess.Appraisal()))
		return
	}
	a, err := s.appraisals.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(a))
}

func (s *Server) deleteAppraisal(c *gin.Context) {
	id := c.Param("id")
	s.sessions.Discard(id)
	if err := s.appraisals.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) completionReport(c *gin.Context) {
	report, err := s.appraisals.CompletionReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) importAppraisal(c *gin.Context) {
	var f importer.AppraisalFile
	if err := bindJSON(c, &f); err != nil {
		writeError(c, err)
		return
	}
	a, err := s.appraisals.Import(c.Request.Context(), &f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, viewOf(a))
}

func (s *Server) exportAppraisal(c *gin.Context) {
	f, err := s.appraisals.Export(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (s *Server) loadSession(c *gin.Context) {
	sess, err := s.sessions.Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{
		Appraisal:        viewOf(sess.Appraisal()),
		RequiredSections: sess.RequiredSections(),
		Status:           sess.Status(),
	})
}

func (s *Server) closeSession(c *gin.Context) {
	if err := s.sessions.Close(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) updateSection(c *gin.Context) {
	sess, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	var payload domain.SectionRecord
	if err := bindJSON(c, &payload); err != nil {
		writeError(c, err)
		return
	}
	if err := sess.UpdateSection(c.Param("section"), payload); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.Status())
}

func (s *Server) updateAdjustments(c *gin.Context) {
	sess, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	var doc domain.AdjustmentDocument
	if err := bindJSON(c, &doc); err != nil {
		writeError(c, err)
		return
	}
	if err := sess.UpdateAdjustments(&doc); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.Adjustments())
}

func (s *Server) updateEffectiveAge(c *gin.Context) {
	sess, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	var ws domain.EffectiveAgeWorksheet
	if err := bindJSON(c, &ws); err != nil {
		writeError(c, err)
		return
	}
	if err := sess.UpdateEffectiveAge(ws); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.EffectiveAge())
}

func (s *Server) triggerSync(c *gin.Context) {
	sess, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	proj, err := sess.TriggerSync(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, syncResponse{
		Target:    proj.Target.Key,
		Reason:    string(proj.Target.Reason),
		Matched:   proj.Matched,
		Unmatched: proj.Unmatched,
	})
}

func (s *Server) saveNow(c *gin.Context) {
	sess, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if err := sess.SaveNow(c.Request.Context()); err != nil {
		s.logger.Error("manual_save_failed", "appraisal_id", sess.ID(), "error", err.Error())
		c.JSON(http.StatusInternalServerError, saveResponse{Status: sess.Status(), Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, saveResponse{Status: sess.Status()})
}

func (s *Server) status(c *gin.Context) {
	sess, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.Status())
}
