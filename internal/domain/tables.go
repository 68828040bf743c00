package domain

var Tables = []interface{}{
	// System
	&SysConfig{},
	&SysOpr{},
	&SysOprLog{},
	// Catalog
	&Category{},
	&Product{},
	&ProductImage{},
	&ProductPrice{},
	// Shop
	&Customer{},
	&Address{},
	&Cart{},
	&CartItem{},
	&Coupon{},
	&Order{},
	&OrderItem{},
	&Transaction{},
	&Invoice{},
	&WebhookEvent{},
}
