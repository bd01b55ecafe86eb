// Package importer loads batches of project records, matching each against
// existing data before it is written.
package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/sahana/eden/internal/models"
	"github.com/sahana/eden/internal/project"
	"github.com/sahana/eden/internal/types"
)

var (
	ErrUnknownResource = errors.New("resource cannot be imported")
	ErrInvalidRecord   = errors.New("invalid record")
)

// Result reports what happened to one imported record.
type Result struct {
	Index  int                `json:"index"`
	Method types.ImportMethod `json:"method"`
	ID     uint               `json:"id"`
}

// resource knows how to match and write one kind of record.
type resource struct {
	model       func() interface{}
	deduplicate func(tx *gorm.DB, item *types.ImportItem) error
	apply       func(tx *gorm.DB, item *types.ImportItem) (uint, error)
}

type Importer struct {
	db        *gorm.DB
	resources map[string]resource
	logger    *zap.Logger
}

func New(db *gorm.DB, communityActivity bool, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Importer{
		db:     db,
		logger: logger,
		resources: map[string]resource{
			project.ResourceProject: register(project.ProjectDeduplicate, project.SaveProject,
				func(p *models.Project) uint { return p.ID }),
			project.ResourceProjectOrganisation: register(project.OrganisationDeduplicate, project.SaveProjectOrganisation,
				func(po *models.ProjectOrganisation) uint { return po.ID }),
			project.ResourceActivity: register(
				func(tx *gorm.DB, item *types.ImportItem) error {
					return project.ActivityDeduplicate(tx, item, communityActivity)
				},
				func(tx *gorm.DB, a *models.Activity) error {
					return project.SaveActivity(tx, a, communityActivity)
				},
				func(a *models.Activity) uint { return a.ID }),
			project.ResourceBeneficiary: register(project.BeneficiaryDeduplicate, project.SaveBeneficiary,
				func(b *models.Beneficiary) uint { return b.ID }),
		},
	}
}

func register[T any](
	deduplicate func(*gorm.DB, *types.ImportItem) error,
	save func(*gorm.DB, *T) error,
	id func(*T) uint,
) resource {
	return resource{
		model:       func() interface{} { return new(T) },
		deduplicate: deduplicate,
		apply: func(tx *gorm.DB, item *types.ImportItem) (uint, error) {
			record := new(T)
			if item.ID != 0 {
				if err := tx.First(record, item.ID).Error; err != nil {
					return 0, err
				}
			}
			if err := decode(item.Data, record); err != nil {
				return 0, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
			}
			if err := save(tx, record); err != nil {
				return 0, err
			}
			return id(record), nil
		},
	}
}

// Supports reports whether records of resource can be imported.
func (i *Importer) Supports(name string) bool {
	_, ok := i.resources[name]
	return ok
}

// Import writes records of the named resource in a single transaction.
// Each record is matched by uuid, then by the resource's deduplicator, and
// either updates the match or is created.
func (i *Importer) Import(ctx context.Context, name string, records []map[string]interface{}) ([]Result, error) {
	res, ok := i.resources[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownResource, name)
	}

	results := make([]Result, 0, len(records))

	err := i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for n, data := range records {
			item := &types.ImportItem{
				Resource: name,
				Method:   types.MethodCreate,
				Data:     withoutKeys(data, "id", "created_at", "updated_at", "deleted_at"),
			}

			if err := matchUUID(tx, res.model(), item); err != nil {
				return fmt.Errorf("record %d: %w", n, err)
			}
			if err := res.deduplicate(tx, item); err != nil {
				return fmt.Errorf("record %d: %w", n, err)
			}

			id, err := res.apply(tx, item)
			if err != nil {
				return fmt.Errorf("record %d: %w", n, err)
			}

			results = append(results, Result{Index: n, Method: item.Method, ID: id})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	i.logger.Info("records imported",
		zap.String("resource", name),
		zap.Int("count", len(results)),
	)

	return results, nil
}

// Parse reads a JSON array of records. Integral numbers come back as int64
// so they can be used as query arguments.
func Parse(r io.Reader) ([]map[string]interface{}, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var records []map[string]interface{}
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	for n, record := range records {
		records[n] = normalize(record).(map[string]interface{})
	}
	return records, nil
}

func normalize(v interface{}) interface{} {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		f, _ := val.Float64()
		return f
	case map[string]interface{}:
		for k, e := range val {
			val[k] = normalize(e)
		}
		return val
	case []interface{}:
		for k, e := range val {
			val[k] = normalize(e)
		}
		return val
	default:
		return v
	}
}

func matchUUID(tx *gorm.DB, model interface{}, item *types.ImportItem) error {
	if !item.Has("uuid") {
		return nil
	}

	var ids []uint
	err := tx.Model(model).Where("uuid = ?", item.Data["uuid"]).Limit(1).Pluck("id", &ids).Error
	if err != nil {
		return err
	}
	if len(ids) > 0 {
		item.Match(ids[0])
	}
	return nil
}

func withoutKeys(data map[string]interface{}, keys ...string) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

var jsonType = reflect.TypeOf(datatypes.JSON{})

func decode(data map[string]interface{}, record interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Squash:  true,
		Result:  record,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			toJSONHook,
			toTimeHook,
		),
	})
	if err != nil {
		return err
	}
	return decoder.Decode(data)
}

func toJSONHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if to != jsonType {
		return data, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func toTimeHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(time.Time{}) {
		return data, nil
	}

	s := data.(string)
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return nil, fmt.Errorf("unrecognised date %q", s)
}
