package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"peerprep/interview/internal/models"
	"peerprep/interview/internal/repositories"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// interviewDocument is the stored shape of an interview. Field names follow the documents the web app writes.
type interviewDocument struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty"`
	UserID              string             `bson:"userId"`
	Role                string             `bson:"role"`
	TechStack           []string           `bson:"techstack"`
	Type                string             `bson:"type"`
	Questions           []string           `bson:"questions"`
	Finalized           bool               `bson:"finalized"`
	CreatedAt           time.Time          `bson:"createdAt"`
	OriginalInterviewID string             `bson:"originalInterviewId,omitempty"`
}

func toInterviewDocument(t *models.InterviewTemplate) interviewDocument {
	doc := interviewDocument{
		UserID:              t.OwnerUserID,
		Role:                t.Role,
		TechStack:           t.TechStack,
		Type:                t.Type,
		Questions:           t.Questions,
		Finalized:           t.Finalized,
		CreatedAt:           t.CreatedAt.UTC(),
		OriginalInterviewID: t.OriginalInterviewID,
	}
	if doc.TechStack == nil {
		doc.TechStack = []string{}
	}
	if doc.Questions == nil {
		doc.Questions = []string{}
	}
	return doc
}

func (d interviewDocument) toModel() models.InterviewTemplate {
	t := models.InterviewTemplate{
		ID:                  d.ID.Hex(),
		OwnerUserID:         d.UserID,
		Role:                d.Role,
		TechStack:           d.TechStack,
		Type:                d.Type,
		Questions:           d.Questions,
		Finalized:           d.Finalized,
		CreatedAt:           d.CreatedAt,
		OriginalInterviewID: d.OriginalInterviewID,
	}
	if t.TechStack == nil {
		t.TechStack = []string{}
	}
	if t.Questions == nil {
		t.Questions = []string{}
	}
	// a self-reference is not a copy
	if t.OriginalInterviewID == t.ID {
		t.OriginalInterviewID = ""
	}
	return t
}

// InterviewRepo wraps the interviews collection
type InterviewRepo struct{ col *mongo.Collection }

// NewInterviewRepo ensures the indexes the catalog and owner queries rely on.
func NewInterviewRepo(ctx context.Context, c *Client) (*InterviewRepo, error) {
	db, err := c.DB()
	if err != nil {
		return nil, err
	}
	r := &InterviewRepo{col: db.Collection(interviewsCollection)}

	_, err = r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "finalized", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("create interview indexes: %w", err)
	}
	return r, nil
}

func (r *InterviewRepo) Create(ctx context.Context, t *models.InterviewTemplate) (string, error) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	res, err := r.col.InsertOne(ctx, toInterviewDocument(t))
	if err != nil {
		return "", fmt.Errorf("insert interview: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("insert interview: unexpected id type %T", res.InsertedID)
	}
	t.ID = oid.Hex()
	return t.ID, nil
}

func (r *InterviewRepo) Get(ctx context.Context, id string) (*models.InterviewTemplate, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repositories.ErrNotFound
	}
	var doc interviewDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("find interview %s: %w", id, err)
	}
	t := doc.toModel()
	return &t, nil
}

func (r *InterviewRepo) QueryByOwner(ctx context.Context, userID string) ([]models.InterviewTemplate, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.find(ctx, bson.M{"userId": userID}, opts)
}

func (r *InterviewRepo) QueryFinalized(ctx context.Context, excludeOwner string, limit int) ([]models.InterviewTemplate, error) {
	filter := bson.M{
		"finalized": true,
		// matches documents without the field as well
		"originalInterviewId": bson.M{"$in": bson.A{nil, ""}},
	}
	if excludeOwner != "" {
		filter["userId"] = bson.M{"$ne": excludeOwner}
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.find(ctx, filter, opts)
}

func (r *InterviewRepo) GetMany(ctx context.Context, ids []string) ([]models.InterviewTemplate, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return []models.InterviewTemplate{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": oids}}, options.Find())
}

func (r *InterviewRepo) Update(ctx context.Context, id string, patch models.InterviewPatch) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repositories.ErrNotFound
	}
	set := bson.M{}
	if patch.Role != nil {
		set["role"] = *patch.Role
	}
	if patch.TechStack != nil {
		set["techstack"] = patch.TechStack
	}
	if patch.Type != nil {
		set["type"] = *patch.Type
	}
	if patch.Finalized != nil {
		set["finalized"] = *patch.Finalized
	}
	if len(set) == 0 {
		// still report unknown ids
		_, err := r.Get(ctx, id)
		return err
	}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update interview %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *InterviewRepo) Ping(ctx context.Context) error {
	return r.col.Database().Client().Ping(ctx, nil)
}

func (r *InterviewRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.InterviewTemplate, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("query interviews: %w", err)
	}
	defer cur.Close(ctx)

	var docs []interviewDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode interviews: %w", err)
	}
	out := make([]models.InterviewTemplate, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}
