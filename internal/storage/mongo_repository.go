package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	tasksCollection = "tasks"
	statsCollection = "user_stats"
	usersCollection = "users"
)

type MongoRepository struct {
	client *mongo.Client
	tasks  *mongo.Collection
	stats  *mongo.Collection
	users  *mongo.Collection
}

// OpenMongo connects to uri, selects database and ensures the indexes the
// repository relies on.
func OpenMongo(ctx context.Context, uri, database string) (*MongoRepository, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, errors.New("storage: mongo uri is required")
	}
	if strings.TrimSpace(database) == "" {
		return nil, errors.New("storage: mongo database is required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	repo := NewMongoRepository(client, client.Database(database))
	if err := repo.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return repo, nil
}

func NewMongoRepository(client *mongo.Client, db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		client: client,
		tasks:  db.Collection(tasksCollection),
		stats:  db.Collection(statsCollection),
		users:  db.Collection(usersCollection),
	}
}

func (r *MongoRepository) ensureIndexes(ctx context.Context) error {
	if _, err := r.tasks.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "deadline", Value: 1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "parentTaskId", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("create task indexes: %w", err)
	}
	if _, err := r.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

func (r *MongoRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}

func (r *MongoRepository) InsertTask(ctx context.Context, in Task) error {
	in.Tags = nonNil(in.Tags)
	in.Subtasks = nonNil(in.Subtasks)
	in.Dependencies = nonNil(in.Dependencies)
	in.Comments = nonNil(in.Comments)
	in.Attachments = nonNil(in.Attachments)
	_, err := r.tasks.InsertOne(ctx, in)
	return err
}

func (r *MongoRepository) FindTask(ctx context.Context, filter TaskFilter) (Task, error) {
	if !filter.single() {
		return Task{}, ErrNotFound
	}
	var out Task
	opts := options.FindOne().SetSort(taskSort())
	if err := r.tasks.FindOne(ctx, mongoTaskFilter(filter), opts).Decode(&out); err != nil {
		return Task{}, mongoErr(err)
	}
	return out, nil
}

func (r *MongoRepository) FindTasks(ctx context.Context, filter TaskFilter) ([]Task, error) {
	opts := options.Find().SetSort(taskSort())
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	cur, err := r.tasks.Find(ctx, mongoTaskFilter(filter), opts)
	if err != nil {
		return nil, err
	}
	out := make([]Task, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoRepository) FindOneAndUpdateTask(ctx context.Context, filter TaskFilter, patch TaskPatch) (Task, error) {
	if !filter.single() {
		return Task{}, ErrNotFound
	}
	update := mongoTaskUpdate(patch)
	if len(update) == 0 {
		return r.FindTask(ctx, filter)
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After).SetSort(taskSort())
	var out Task
	if err := r.tasks.FindOneAndUpdate(ctx, mongoTaskFilter(filter), update, opts).Decode(&out); err != nil {
		return Task{}, mongoErr(err)
	}
	return out, nil
}

func (r *MongoRepository) UpdateTasks(ctx context.Context, filter TaskFilter, patch TaskPatch) (int64, error) {
	update := mongoTaskUpdate(patch)
	if len(update) == 0 {
		return 0, nil
	}
	res, err := r.tasks.UpdateMany(ctx, mongoTaskFilter(filter), update)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *MongoRepository) GetStats(ctx context.Context, userID string) (UserStats, error) {
	var out UserStats
	if err := r.stats.FindOne(ctx, bson.M{"_id": userID}).Decode(&out); err != nil {
		return UserStats{}, mongoErr(err)
	}
	if out.Achievements == nil {
		out.Achievements = make([]Achievement, 0)
	}
	return out, nil
}

func (r *MongoRepository) InsertStats(ctx context.Context, in UserStats) error {
	in.Achievements = nonNil(in.Achievements)
	_, err := r.stats.InsertOne(ctx, in)
	return err
}

// UpdateStats overwrites the counters and pushes achievements whose
// (type, value) pair is not yet present.
func (r *MongoRepository) UpdateStats(ctx context.Context, in UserStats) error {
	res, err := r.stats.UpdateOne(ctx, bson.M{"_id": in.UserID}, bson.M{"$set": bson.M{
		"currentStreak":       in.CurrentStreak,
		"longestStreak":       in.LongestStreak,
		"totalTasksCompleted": in.TotalTasksCompleted,
		"totalTasksCreated":   in.TotalTasksCreated,
		"lastActivityDate":    in.LastActivityDate,
		"updatedAt":           in.UpdatedAt,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	for _, a := range in.Achievements {
		if _, err := r.stats.UpdateOne(ctx,
			bson.M{
				"_id":          in.UserID,
				"achievements": bson.M{"$not": bson.M{"$elemMatch": bson.M{"type": a.Type, "value": a.Value}}},
			},
			bson.M{"$push": bson.M{"achievements": a}},
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *MongoRepository) UpsertUser(ctx context.Context, in User) (User, error) {
	theme := in.Theme
	if theme == "" {
		theme = "auto"
	}
	set := bson.M{}
	if in.Name != "" {
		set["name"] = in.Name
	}
	if in.Image != "" {
		set["image"] = in.Image
	}
	update := bson.M{"$setOnInsert": bson.M{
		"_id":       in.ID,
		"email":     in.Email,
		"theme":     theme,
		"createdAt": in.CreatedAt,
	}}
	if len(set) > 0 {
		update["$set"] = set
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var out User
	if err := r.users.FindOneAndUpdate(ctx, bson.M{"email": in.Email}, update, opts).Decode(&out); err != nil {
		return User{}, mongoErr(err)
	}
	return out, nil
}

func (r *MongoRepository) GetUser(ctx context.Context, id string) (User, error) {
	var out User
	if err := r.users.FindOne(ctx, bson.M{"_id": id}).Decode(&out); err != nil {
		return User{}, mongoErr(err)
	}
	return out, nil
}

func taskSort() bson.D {
	return bson.D{{Key: "deadline", Value: 1}, {Key: "_id", Value: 1}}
}

func mongoTaskFilter(f TaskFilter) bson.M {
	conds := make([]bson.M, 0, 8)
	eq := func(field, value string) {
		if value != "" {
			conds = append(conds, bson.M{field: value})
		}
	}
	eq("_id", f.ID)
	eq("userId", f.UserID)
	eq("parentTaskId", f.ParentTaskID)
	eq("projectId", f.ProjectID)
	eq("workspaceId", f.WorkspaceID)
	eq("context", f.Context)
	if f.IDs != nil {
		conds = append(conds, bson.M{"_id": bson.M{"$in": f.IDs}})
	}
	if f.ExcludeID != "" {
		conds = append(conds, bson.M{"_id": bson.M{"$ne": f.ExcludeID}})
	}
	if f.ActiveOnly {
		conds = append(conds, bson.M{"is_deleted": bson.M{"$ne": true}})
	}
	if len(f.Statuses) > 0 {
		conds = append(conds, bson.M{"status": bson.M{"$in": f.Statuses}})
	}
	if len(f.Priorities) > 0 {
		conds = append(conds, bson.M{"priority": bson.M{"$in": f.Priorities}})
	}
	if len(f.Tags) > 0 {
		conds = append(conds, bson.M{"tags": bson.M{"$in": f.Tags}})
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := bson.M{"$regex": regexp.QuoteMeta(s), "$options": "i"}
		conds = append(conds, bson.M{"$or": bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
		}})
	}
	if f.DeadlineFrom != nil || f.DeadlineBefore != nil {
		window := bson.M{}
		if f.DeadlineFrom != nil {
			window["$gte"] = *f.DeadlineFrom
		}
		if f.DeadlineBefore != nil {
			window["$lt"] = *f.DeadlineBefore
		}
		conds = append(conds, bson.M{"deadline": window})
	}

	switch len(conds) {
	case 0:
		return bson.M{}
	case 1:
		return conds[0]
	default:
		all := make(bson.A, 0, len(conds))
		for _, c := range conds {
			all = append(all, c)
		}
		return bson.M{"$and": all}
	}
}

func mongoTaskUpdate(p TaskPatch) bson.M {
	set := bson.M{}
	put := func(field string, ok bool, value any) {
		if ok {
			set[field] = value
		}
	}
	put("title", p.Title != nil, deref(p.Title))
	put("description", p.Description != nil, deref(p.Description))
	put("priority", p.Priority != nil, deref(p.Priority))
	put("status", p.Status != nil, deref(p.Status))
	put("projectId", p.ProjectID != nil, deref(p.ProjectID))
	put("workspaceId", p.WorkspaceID != nil, deref(p.WorkspaceID))
	put("context", p.Context != nil, deref(p.Context))
	put("location", p.Location != nil, deref(p.Location))
	if p.Deadline != nil {
		set["deadline"] = *p.Deadline
	}
	if p.IsDeleted != nil {
		set["is_deleted"] = *p.IsDeleted
	}
	if p.DeletedAt != nil {
		set["deletedAt"] = *p.DeletedAt
	}
	if p.ArchivedAt != nil {
		set["archivedAt"] = *p.ArchivedAt
	}
	if p.CompletedAt != nil {
		set["completedAt"] = *p.CompletedAt
	}
	if p.SnoozedUntil != nil {
		set["snoozedUntil"] = *p.SnoozedUntil
	}
	if p.Tags != nil {
		set["tags"] = nonNil(*p.Tags)
	}
	if p.EstimatedMinutes != nil {
		set["estimatedTime"] = *p.EstimatedMinutes
	}
	if !p.UpdatedAt.IsZero() {
		set["updatedAt"] = p.UpdatedAt
	}

	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if p.ClearCompletedAt && p.CompletedAt == nil {
		update["$unset"] = bson.M{"completedAt": ""}
	}
	if p.AddSpentMinutes != 0 {
		update["$inc"] = bson.M{"timeSpent": p.AddSpentMinutes}
	}
	push := bson.M{}
	if p.AppendSubtask != "" {
		push["subtasks"] = p.AppendSubtask
	}
	if p.AppendComment != nil {
		push["comments"] = *p.AppendComment
	}
	if len(push) > 0 {
		update["$push"] = push
	}
	return update
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func mongoErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
