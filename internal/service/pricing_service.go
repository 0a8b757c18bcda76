package service

import (
	"context"
	"math"
	"time"

	"carrent/internal/model"
	"carrent/internal/repository"
	"carrent/pkg/logger"

	"github.com/google/uuid"
)

// SearchQuotesRequest 报价检索请求
type SearchQuotesRequest struct {
	Date         string  `form:"date" binding:"required"`
	Time         string  `form:"time" binding:"required"`
	Longitude    float64 `form:"longitude"`
	Latitude     float64 `form:"latitude"`
	DeliveryType int     `form:"deliveryType"`
}

// PricingService 报价与计价服务
type PricingService struct {
	storeRepo repository.StoreRepository
	quotes    repository.QuoteCache
	quoteTTL  time.Duration
	logger    *logger.Logger
}

// NewPricingService 创建报价服务
func NewPricingService(storeRepo repository.StoreRepository, quotes repository.QuoteCache, quoteTTL time.Duration, log *logger.Logger) *PricingService {
	return &PricingService{
		storeRepo: storeRepo,
		quotes:    quotes,
		quoteTTL:  quoteTTL,
		logger:    log,
	}
}

// SearchQuotes 按取车时间和位置检索可用车型并生成报价。
// 每条报价写入缓存并锁价，缓存过期前下单按报价中的价格结算。
func (s *PricingService) SearchQuotes(ctx context.Context, tenantID uint64, req *SearchQuotesRequest) ([]model.Quote, error) {
	startTime, err := parsePickupTime(req.Date, req.Time)
	if err != nil {
		return nil, NewValidationError("取车时间格式不正确")
	}
	deliveryType := req.DeliveryType
	if deliveryType == 0 {
		deliveryType = model.DeliveryTypeStore
	}

	stores, err := s.storeRepo.GetActiveStores(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	endTime := startTime.Add(24 * time.Hour)
	quotes := make([]model.Quote, 0)
	for _, store := range stores {
		if deliveryType == model.DeliveryTypeDoorstep {
			dist := haversineKm(req.Latitude, req.Longitude, store.Latitude, store.Longitude)
			if dist > store.DeliveryRadiusKm {
				continue
			}
		}
		models, err := s.storeRepo.GetActiveModelsByStore(ctx, store.ID)
		if err != nil {
			return nil, err
		}
		for _, vm := range models {
			quote := model.Quote{
				ID:                  uuid.NewString(),
				TenantID:            tenantID,
				ProductID:           vm.ProductID,
				ModelID:             vm.ID,
				StoreID:             store.ID,
				DailyRate:           vm.DailyRate,
				BaseProtectionPrice: vm.BaseProtectionPrice,
				DamageDeposit:       vm.DamageDeposit,
				ViolationDeposit:    vm.ViolationDeposit,
				DeliveryType:        deliveryType,
				StartTime:           startTime,
				EndTime:             endTime,
				CreatedAt:           now,
			}
			if deliveryType == model.DeliveryTypeDoorstep {
				quote.PickupFee = store.PickupFee
				quote.ReturnFee = store.ReturnFee
			} else {
				quote.StoreFee = store.StoreFee
			}
			quote.TotalPrice = quote.DailyRate + quote.PickupFee + quote.ReturnFee + quote.StoreFee + quote.BaseProtectionPrice

			if err := s.quotes.Save(ctx, &quote, s.quoteTTL); err != nil {
				s.logger.Error("写入报价缓存失败", "storeId", store.ID, "modelId", vm.ID, "error", err)
				return nil, err
			}
			quotes = append(quotes, quote)
		}
	}

	s.logger.Info("报价检索完成", "tenantId", tenantID, "startTime", startTime, "count", len(quotes))
	return quotes, nil
}

// GetQuoteDetail 获取报价详情，过期或不存在时返回报价已失效
func (s *PricingService) GetQuoteDetail(ctx context.Context, tenantID uint64, quoteID string) (*model.Quote, error) {
	quote, err := s.quotes.Get(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if quote == nil || quote.TenantID != tenantID {
		return nil, ErrQuoteExpired
	}
	return quote, nil
}

func parsePickupTime(date, clock string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", date+" "+clock, time.Local)
}

const earthRadiusKm = 6371.0

// haversineKm 计算两个经纬度坐标间的球面距离
func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
