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

type feedbackDocument struct {
	ID                  primitive.ObjectID     `bson:"_id,omitempty"`
	InterviewID         string                 `bson:"interviewId"`
	UserID              string                 `bson:"userId"`
	TotalScore          int                    `bson:"totalScore"`
	CategoryScores      []models.CategoryScore `bson:"categoryScores"`
	Strengths           []string               `bson:"strengths"`
	AreasForImprovement []string               `bson:"areasForImprovement"`
	FinalAssessment     string                 `bson:"finalAssessment"`
	CreatedAt           time.Time              `bson:"createdAt"`
}

func (d feedbackDocument) toModel() models.FeedbackRecord {
	rec := models.FeedbackRecord{
		ID:          d.ID.Hex(),
		InterviewID: d.InterviewID,
		UserID:      d.UserID,
		Assessment: models.Assessment{
			TotalScore:          d.TotalScore,
			CategoryScores:      d.CategoryScores,
			Strengths:           d.Strengths,
			AreasForImprovement: d.AreasForImprovement,
			FinalAssessment:     d.FinalAssessment,
		},
		CreatedAt: d.CreatedAt,
	}
	if rec.CategoryScores == nil {
		rec.CategoryScores = []models.CategoryScore{}
	}
	if rec.Strengths == nil {
		rec.Strengths = []string{}
	}
	if rec.AreasForImprovement == nil {
		rec.AreasForImprovement = []string{}
	}
	return rec
}

// content fields overwritten on every write of a pair
func feedbackSet(fields models.FeedbackFields) bson.M {
	set := bson.M{
		"totalScore":          fields.TotalScore,
		"categoryScores":      fields.CategoryScores,
		"strengths":           fields.Strengths,
		"areasForImprovement": fields.AreasForImprovement,
		"finalAssessment":     fields.FinalAssessment,
		"createdAt":           fields.CreatedAt.UTC(),
	}
	if fields.CategoryScores == nil {
		set["categoryScores"] = []models.CategoryScore{}
	}
	if fields.Strengths == nil {
		set["strengths"] = []string{}
	}
	if fields.AreasForImprovement == nil {
		set["areasForImprovement"] = []string{}
	}
	return set
}

// FeedbackRepo wraps the feedback collection
type FeedbackRepo struct{ col *mongo.Collection }

// NewFeedbackRepo ensures the unique (interviewId, userId) index backing the one-record-per-pair rule.
func NewFeedbackRepo(ctx context.Context, c *Client) (*FeedbackRepo, error) {
	db, err := c.DB()
	if err != nil {
		return nil, err
	}
	r := &FeedbackRepo{col: db.Collection(feedbackCollection)}

	_, err = r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "interviewId", Value: 1}, {Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "createdAt", Value: 1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("create feedback indexes: %w", err)
	}
	return r, nil
}

func (r *FeedbackRepo) Upsert(ctx context.Context, interviewID, userID string, fields models.FeedbackFields) (string, bool, error) {
	if fields.CreatedAt.IsZero() {
		fields.CreatedAt = time.Now().UTC()
	}
	pair := bson.M{"interviewId": interviewID, "userId": userID}

	existing, err := r.Get(ctx, interviewID, userID)
	switch {
	case err == nil:
		return existing.ID, false, r.overwrite(ctx, existing.ID, fields)
	case !errors.Is(err, repositories.ErrNotFound):
		return "", false, err
	}

	doc := bson.M{"interviewId": interviewID, "userId": userID}
	for k, v := range feedbackSet(fields) {
		doc[k] = v
	}
	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// lost a race with a concurrent completion for the same pair; last write wins
			var winner feedbackDocument
			if err := r.col.FindOne(ctx, pair).Decode(&winner); err != nil {
				return "", false, fmt.Errorf("find feedback after conflict: %w", err)
			}
			return winner.ID.Hex(), false, r.overwrite(ctx, winner.ID.Hex(), fields)
		}
		return "", false, fmt.Errorf("insert feedback: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", false, fmt.Errorf("insert feedback: unexpected id type %T", res.InsertedID)
	}
	return oid.Hex(), true, nil
}

func (r *FeedbackRepo) overwrite(ctx context.Context, id string, fields models.FeedbackFields) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("feedback id %q: %w", id, err)
	}
	if _, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": feedbackSet(fields)}); err != nil {
		return fmt.Errorf("update feedback %s: %w", id, err)
	}
	return nil
}

func (r *FeedbackRepo) Get(ctx context.Context, interviewID, userID string) (*models.FeedbackRecord, error) {
	var doc feedbackDocument
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	err := r.col.FindOne(ctx, bson.M{"interviewId": interviewID, "userId": userID}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("find feedback: %w", err)
	}
	rec := doc.toModel()
	return &rec, nil
}

func (r *FeedbackRepo) QueryByUser(ctx context.Context, userID string) ([]models.FeedbackRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.find(ctx, bson.M{"userId": userID}, opts)
}

func (r *FeedbackRepo) QueryCreatedSince(ctx context.Context, since time.Time) ([]models.FeedbackRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	return r.find(ctx, bson.M{"createdAt": bson.M{"$gt": since.UTC()}}, opts)
}

func (r *FeedbackRepo) Ping(ctx context.Context) error {
	return r.col.Database().Client().Ping(ctx, nil)
}

func (r *FeedbackRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.FeedbackRecord, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("query feedback: %w", err)
	}
	defer cur.Close(ctx)

	var docs []feedbackDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode feedback: %w", err)
	}
	out := make([]models.FeedbackRecord, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}
